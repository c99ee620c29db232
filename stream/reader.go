// Package stream provides the lazy record sequence abstraction shared by the
// reader and the filter stages, and the time-window streaming reader itself.
package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/logparser"
	"github.com/tracevis/tracevis/timeindex"
	"github.com/tracevis/tracevis/trace"
)

// View is a pull-based sequence of records. Next returns the next record and
// true, or a zero record and false once the sequence is exhausted. A View is
// single-pass; the reader at the bottom of a chain can be Reset to run again.
type View interface {
	Next() (trace.Record, bool)
}

// Reader streams records from a sorted log file, starting at the byte offset
// the time index locates for the window start and stopping as soon as a line's
// timestamp passes the window end. It emits exactly the records with
// timestamps inside [start, end], in file order.
type Reader struct {
	path  string
	index *timeindex.Index
	start int64
	end   int64

	file    *os.File
	br      *bufio.Reader
	started bool
	done    bool
	err     error
	misses  int
}

// NewReader builds a reader whose window initially spans the whole file.
func NewReader(path string) (*Reader, error) {
	ix := timeindex.New(path)
	first, err := ix.FirstTime()
	if err != nil {
		return nil, err
	}
	last, err := ix.LastTime()
	if err != nil {
		return nil, err
	}
	return &Reader{
		path:  path,
		index: ix,
		start: first,
		end:   last,
	}, nil
}

func (r *Reader) Path() string     { return r.path }
func (r *Reader) Start() int64     { return r.start }
func (r *Reader) End() int64       { return r.end }
func (r *Reader) SetStart(t int64) { r.start = t }
func (r *Reader) SetEnd(t int64)   { r.end = t }

// Open reports whether the reader currently holds an open file handle.
func (r *Reader) Open() bool { return r.file != nil }

// Err reports a failure that terminated the stream early, such as a malformed
// timestamp where the scan needed a comparable one.
func (r *Reader) Err() error { return r.err }

// Misses reports how many lines were skipped as unparseable since the last
// Reset.
func (r *Reader) Misses() int { return r.misses }

// Reset closes any open handle and rewinds the sequence so the next call to
// Next starts the window scan over.
func (r *Reader) Reset() {
	r.close()
	r.started = false
	r.done = false
	r.err = nil
	r.misses = 0
}

// Next returns the next in-window record.
func (r *Reader) Next() (trace.Record, bool) {
	if r.done {
		return trace.Record{}, false
	}
	if !r.started {
		if err := r.open(); err != nil {
			r.fail(err)
			return trace.Record{}, false
		}
		if r.done {
			return trace.Record{}, false
		}
	}

	for {
		line, err := r.br.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if err == nil {
				continue
			}
			r.finish()
			return trace.Record{}, false
		}

		ts, terr := logparser.TimeFromLine(line)
		if terr != nil {
			r.fail(terr)
			return trace.Record{}, false
		}
		if ts > r.end {
			r.finish()
			return trace.Record{}, false
		}
		if ts >= r.start {
			if rec, ok := logparser.ParseLine(line); ok {
				if err == io.EOF {
					r.finish()
				}
				return rec, true
			}
			r.misses++
		}
		if err == io.EOF {
			r.finish()
			return trace.Record{}, false
		}
	}
}

func (r *Reader) open() error {
	r.started = true

	offset, err := r.index.Locate(r.start)
	if err != nil {
		return err
	}
	if offset < 0 {
		r.done = true
		return nil
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", r.path, err, errs.ErrFileOpen)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return err
	}

	log.Debug().Str("path", r.path).Int64("offset", offset).
		Int64("start", r.start).Int64("end", r.end).Msg("stream opened")

	r.file = f
	r.br = bufio.NewReaderSize(f, 256*1024)
	return nil
}

func (r *Reader) fail(err error) {
	r.err = err
	r.finish()
}

func (r *Reader) finish() {
	r.done = true
	r.close()
}

func (r *Reader) close() {
	if r.file != nil {
		r.file.Close()
		r.file = nil
		r.br = nil
	}
}
