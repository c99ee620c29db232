// Package timeindex answers timestamp questions about a sorted trace log
// without reading it: first/last record times and a byte-offset binary search
// that finds where streaming should begin for a target time.
package timeindex

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/logparser"
)

// tailProbe is how many bytes are read from the end of the file to find the
// last line. Trace lines run well under 1KB, so this covers the final line
// with a wide margin.
const tailProbe = 64 * 1024

// Index owns a log file path. The file must be sorted non-decreasing by
// timestamp; Locate relies on that order.
type Index struct {
	path string
}

func New(path string) *Index {
	return &Index{path: path}
}

// FirstTime reads the timestamp of the first line.
func (ix *Index) FirstTime() (int64, error) {
	f, err := os.Open(ix.path)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", ix.path, err, errs.ErrFileOpen)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	line, err := br.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		if err == io.EOF {
			return -1, nil
		}
		return 0, err
	}
	return logparser.TimeFromLine(trimEOL(line))
}

// LastTime scans backward from the end of the file to the final line and
// reads its timestamp.
func (ix *Index) LastTime() (int64, error) {
	f, err := os.Open(ix.path)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", ix.path, err, errs.ErrFileOpen)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := st.Size()
	if size == 0 {
		return -1, nil
	}

	probe := int64(tailProbe)
	if probe > size {
		probe = size
	}
	buf := make([]byte, probe)
	if _, err := f.ReadAt(buf, size-probe); err != nil && err != io.EOF {
		return 0, err
	}

	// Ignore a trailing newline, then take everything after the previous one.
	buf = bytes.TrimRight(buf, "\n")
	if idx := bytes.LastIndexByte(buf, '\n'); idx >= 0 {
		buf = buf[idx+1:]
	}
	return logparser.TimeFromLine(buf)
}

// Locate binary-searches byte offsets for target and returns a start-of-line
// offset such that streaming forward emits every record with timestamp >=
// target. Each probe seeks to the midpoint, discards the partial leading line,
// and compares the next full line's timestamp. An exact match is returned
// first, else the closest later line found; when no later line is found the
// closest earlier line is returned, so streaming from it starts with records
// before target. Returns -1 when the file holds no usable line.
func (ix *Index) Locate(target int64) (int64, error) {
	f, err := os.Open(ix.path)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", ix.path, err, errs.ErrFileOpen)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}

	left := int64(0)
	right := st.Size()
	result := int64(-1)
	closestGreater := int64(-1)

	for left <= right {
		mid := left + (right-left)/2

		lineStart, line, err := readLineAt(f, mid)
		if err != nil {
			return 0, err
		}
		if len(line) == 0 {
			break
		}

		ts, err := logparser.TimeFromLine(line)
		if err != nil {
			return 0, err
		}

		switch {
		case ts == target:
			log.Debug().Int64("offset", lineStart).Int64("target", target).Msg("time index hit")
			return lineStart, nil
		case ts > target:
			closestGreater = lineStart
			right = mid - 1
		default:
			result = lineStart
			left = mid + 1
		}
	}

	if closestGreater != -1 {
		return closestGreater, nil
	}
	return result, nil
}

// readLineAt seeks to off, skips the remainder of the line the offset landed
// in (unless off is 0, a line start by definition), and returns the start
// offset and contents of the next full line.
func readLineAt(f *os.File, off int64) (int64, []byte, error) {
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return 0, nil, err
	}
	br := bufio.NewReader(f)

	lineStart := off
	if off > 0 {
		skipped, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return 0, nil, err
		}
		lineStart += int64(len(skipped))
	}

	line, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return 0, nil, err
	}
	return lineStart, trimEOL(line), nil
}

func trimEOL(line []byte) []byte {
	return bytes.TrimRight(line, "\r\n")
}
