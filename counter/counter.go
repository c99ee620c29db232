package counter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/logparser"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 6

// Counter counts a whole log file with a fixed pool of workers. Worker i owns
// the half-open byte range [i*F/N, (i+1)*F/N); the last worker absorbs the
// remainder. Each worker opens its own file handle, discards the partial line
// its range starts in (the previous worker reads that line to completion), and
// counts into local histograms merged under one lock per worker.
type Counter struct {
	Path    string
	Workers int
}

// Run parses the file and returns the merged histograms. The first worker
// error observed terminates the operation.
func (c *Counter) Run() (*Histograms, error) {
	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", c.Path, err, errs.ErrFileOpen)
	}
	st, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, err
	}

	size := st.Size()
	global := NewHistograms()
	if size == 0 {
		return global, nil
	}
	if int64(workers) > size {
		workers = 1
	}

	started := time.Now()
	chunk := size / int64(workers)

	var (
		wg       sync.WaitGroup
		mergeMu  sync.Mutex
		errOnce  sync.Once
		firstErr error
	)

	for i := 0; i < workers; i++ {
		start := int64(i) * chunk
		end := start + chunk
		if i == workers-1 {
			end = size
		}

		wg.Add(1)
		go func(idx int, start, end int64) {
			defer wg.Done()
			local, err := countRange(c.Path, idx, start, end)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			mergeMu.Lock()
			global.Merge(local)
			mergeMu.Unlock()
		}(i, start, end)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	log.Debug().Int("workers", workers).Int64("bytes", size).
		Int("records", global.Total()).Dur("elapsed", time.Since(started)).
		Msg("count complete")
	return global, nil
}

// countRange parses the lines beginning inside [start, end) into a fresh set
// of local histograms. A line straddling the range end is read to completion,
// so every line of the file is counted by exactly one worker.
func countRange(path string, idx int, start, end int64) (*Histograms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, errs.ErrFileOpen)
	}
	defer f.Close()

	// Back up one byte so a range starting exactly on a line start keeps that
	// line: the skip below then consumes only the preceding newline.
	seekTo := start
	if idx > 0 {
		seekTo = start - 1
	}
	if _, err := f.Seek(seekTo, io.SeekStart); err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(f, 256*1024)
	pos := seekTo

	// The previous worker's range contains this line's start; skip it.
	if idx > 0 {
		skipped, err := br.ReadBytes('\n')
		pos += int64(len(skipped))
		if err == io.EOF {
			return NewHistograms(), nil
		}
		if err != nil {
			return nil, err
		}
	}

	local := NewHistograms()
	for pos < end {
		line, err := br.ReadBytes('\n')
		pos += int64(len(line))

		trimmed := bytes.TrimRight(line, "\r\n")
		if len(trimmed) > 0 {
			if rec, ok := logparser.ParseLine(trimmed); ok {
				local.Observe(rec)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return local, nil
}
