// Package perf measures timed operations and records them, together with the
// filter stages built during the run, in an append-only metadata file.
package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/errs"
)

// MetadataFile is the file name appended to inside the metadata directory.
const MetadataFile = "run_metadata.txt"

// DefaultDir is the default metadata directory.
const DefaultDir = "Performance"

// runDelimiter closes each run block in the metadata file.
const runDelimiter = "-----------------------------------------------------------------------------"

var (
	stagesMu sync.Mutex
	stages   []string
)

// RegisterStage appends a stage description to the process-wide list written
// by Timer.Stop. Stage constructors call this as they are built.
func RegisterStage(desc string) {
	stagesMu.Lock()
	stages = append(stages, desc)
	stagesMu.Unlock()
}

// Stages returns a snapshot of the registered stage descriptions.
func Stages() []string {
	stagesMu.Lock()
	defer stagesMu.Unlock()
	out := make([]string, len(stages))
	copy(out, stages)
	return out
}

// ResetStages clears the registered stage descriptions.
func ResetStages() {
	stagesMu.Lock()
	stages = nil
	stagesMu.Unlock()
}

// Timer demarcates one timed operation. Start captures the wall clock and
// opens (creating if needed) the metadata file; Stop writes the elapsed
// minutes/seconds, the current date, and the registered stage descriptions.
type Timer struct {
	file  *os.File
	start time.Time
}

// Start opens the metadata file under dir, creating the directory as needed.
func Start(dir string) (*Timer, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", dir, err, errs.ErrFileCreate)
	}

	path := filepath.Join(dir, MetadataFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, errs.ErrFileCreate)
	}

	return &Timer{file: f, start: time.Now()}, nil
}

// Stop writes the run block and closes the metadata file.
func (t *Timer) Stop() error {
	elapsed := time.Since(t.start)
	total := int(elapsed.Seconds())
	minutes := total / 60
	seconds := total % 60

	now := time.Now()
	fmt.Fprintf(t.file, "Date: %02d:%02d:%02d %d/%d/%d\n",
		now.Hour(), now.Minute(), now.Second(), now.Day(), int(now.Month()), now.Year())

	if minutes > 0 {
		fmt.Fprintf(t.file, "Duration: %d minutes and %d seconds\n", minutes, seconds)
	} else {
		fmt.Fprintf(t.file, "Duration: %d seconds\n", seconds)
	}

	fmt.Fprintf(t.file, "Filter Functions:\n")
	for _, desc := range Stages() {
		fmt.Fprintln(t.file, desc)
	}
	fmt.Fprintln(t.file, runDelimiter)

	log.Debug().Dur("elapsed", elapsed).Msg("run metadata written")
	return t.file.Close()
}
