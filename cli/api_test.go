package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracevis/tracevis/config"
	"github.com/tracevis/tracevis/counter"
	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/testutil"
	"github.com/tracevis/tracevis/trace"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Engine.ResultFile = filepath.Join(dir, "result.txt")
	cfg.Engine.PerfDir = filepath.Join(dir, "Performance")
	cfg.Filter.Output = filepath.Join(dir, "filtered_logs.csv")
	return cfg
}

func countOutputLines(t *testing.T, path string) int {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}

func TestRunFilter_EndToEnd(t *testing.T) {
	input := testutil.WriteFixtureLog(t)
	cfg := testConfig(t)

	specs := []string{
		"TimeRange=1726671833.525302,1726671915.525302",
		"ThreadId=117",
	}
	if err := runFilter(cfg, input, specs); err != nil {
		t.Fatal(err)
	}

	if got := countOutputLines(t, cfg.Filter.Output); got != 4 {
		t.Errorf("Expected 4 filtered lines, got %d", got)
	}

	// The run block lands in the performance metadata file.
	meta, err := os.ReadFile(filepath.Join(cfg.Engine.PerfDir, "run_metadata.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(meta), "ThreadIdFilter: 117") {
		t.Errorf("metadata missing stage description:\n%s", meta)
	}
}

func TestRunFilter_Idempotent(t *testing.T) {
	input := testutil.WriteFixtureLog(t)
	cfg := testConfig(t)

	specs := []string{"Area=host_if"}
	if err := runFilter(cfg, input, specs); err != nil {
		t.Fatal(err)
	}
	firstRun := countOutputLines(t, cfg.Filter.Output)

	// Re-filter the filtered output with the same specs.
	cfg2 := testConfig(t)
	if err := runFilter(cfg2, cfg.Filter.Output, specs); err != nil {
		t.Fatal(err)
	}
	if secondRun := countOutputLines(t, cfg2.Filter.Output); secondRun != firstRun {
		t.Errorf("filters are not idempotent: %d then %d lines", firstRun, secondRun)
	}
}

func TestRunFilter_BadSpec(t *testing.T) {
	input := testutil.WriteFixtureLog(t)
	cfg := testConfig(t)

	err := runFilter(cfg, input, []string{"Banana=1"})
	if !errors.Is(err, errs.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestCountPrompt(t *testing.T) {
	hist := counter.NewHistograms()
	hist.Observe(trace.Record{Tid: 117, Unit: "BMT", Area: "hbm"})

	in := strings.NewReader("ThreadId\nexit\n")
	if err := countPrompt(hist, in); err != nil {
		t.Fatal(err)
	}
}

func TestCountPrompt_UnknownName(t *testing.T) {
	hist := counter.NewHistograms()
	in := strings.NewReader("Banana\n")
	err := countPrompt(hist, in)
	if !errors.Is(err, errs.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestRunCount_WritesResultFile(t *testing.T) {
	input := testutil.WriteFixtureLog(t)
	cfg := testConfig(t)

	// Feed the prompt loop an immediate exit through a pipe on stdin.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	w.WriteString("exit\n")
	w.Close()
	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	if err := runCount(cfg, input, "", false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(cfg.Engine.ResultFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ThreadId - 117 : 5") {
		t.Errorf("result file missing expected count:\n%s", data)
	}
}
