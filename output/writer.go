// Package output writes the engine's artifacts: the filtered log file, the
// persisted count results, and the optional quad-activity heatmap.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	pgzip "github.com/klauspost/pgzip"

	"github.com/tracevis/tracevis/counter"
	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/trace"
)

// LogWriter streams filtered records to a file in the input grammar, one per
// line. Paths ending in .gz are compressed with parallel gzip so a slow
// consumer disk does not stall the filter chain.
type LogWriter struct {
	f     *os.File
	gz    *pgzip.Writer
	bw    *bufio.Writer
	buf   []byte
	count int
}

// NewLogWriter creates (truncating) the output file.
func NewLogWriter(path string) (*LogWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file %s: %v: %w", path, err, errs.ErrFileOpen)
	}

	w := &LogWriter{f: f, buf: make([]byte, 0, 512)}
	var sink io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		w.gz = pgzip.NewWriter(f)
		sink = w.gz
	}
	w.bw = bufio.NewWriterSize(sink, 256*1024)
	return w, nil
}

// Write appends one record line.
func (w *LogWriter) Write(rec trace.Record) error {
	w.buf = rec.AppendLine(w.buf[:0])
	w.buf = append(w.buf, '\n')
	if _, err := w.bw.Write(w.buf); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count reports how many records have been written.
func (w *LogWriter) Count() int { return w.count }

// Close flushes and closes the file.
func (w *LogWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			w.f.Close()
			return err
		}
	}
	return w.f.Close()
}

// WriteResults persists the five histograms to the result file.
func WriteResults(path string, h *counter.Histograms) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening result file %s: %v: %w", path, err, errs.ErrFileOpen)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := h.WriteResults(bw); err != nil {
		return err
	}
	return bw.Flush()
}
