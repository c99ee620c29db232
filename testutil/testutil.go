// Package testutil generates trace log fixtures for tests.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/tracevis/tracevis/generator"
)

// FixtureLines are ten canonical records spanning timestamps
// 1726671833.525302 through 1726671925.525302, sorted by time.
var FixtureLines = []string{
	"timestamp:1726671833.525302,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:mcu gate 1,unit:BMT,in/out:in,tid:117,packet/data:sample data 0",
	"timestamp:1726671845.525302,cluster_id:chip:0;die:1;quad:2;row:2;col:2,area:hbm,unit:lnb,in/out:out,tid:7,packet/data:sample data 1",
	"timestamp:1726671855.525302,cluster_id:chip:0;die:0;quad:3;row:3;col:3,area:host_if,unit:hbm,in/out:in,tid:5,packet/data:sample data 2",
	"timestamp:1726671865.525302,cluster_id:chip:0;die:1;quad:1;row:0;col:0,area:hbm,unit:lnb,in/out:in,tid:117,packet/data:sample data 3",
	"timestamp:1726671875.525302,cluster_id:chip:0;die:1;quad:0;row:1;col:1,area:host_if,unit:BMT,in/out:in,tid:7,packet/data:sample data 4",
	"timestamp:1726671885.525302,cluster_id:chip:0;die:1;quad:1;row:2;col:2,area:host_if,unit:hbm,in/out:in,tid:7,packet/data:sample data 5",
	"timestamp:1726671895.525302,cluster_id:chip:0;die:1;quad:2;row:3;col:3,area:hbm,unit:hbm,in/out:in,tid:117,packet/data:sample data 6",
	"timestamp:1726671905.525302,cluster_id:chip:0;die:0;quad:1;row:0;col:0,area:host_if,unit:hbm,in/out:in,tid:7,packet/data:sample data 7",
	"timestamp:1726671915.525302,cluster_id:chip:0;die:0;quad:3;row:1;col:1,area:host_if,unit:hbm,in/out:in,tid:117,packet/data:sample data 8",
	"timestamp:1726671925.525302,cluster_id:chip:0;die:0;quad:1;row:3;col:3,area:hbm,unit:BMT,in/out:in,tid:117,packet/data:sample data 9",
}

// WriteFixtureLog writes the canonical ten-record file and returns its path.
func WriteFixtureLog(t *testing.T) string {
	t.Helper()
	return WriteLog(t, FixtureLines)
}

// WriteLog writes the given lines as a log file in a test temp dir.
func WriteLog(t *testing.T, lines []string) string {
	t.Helper()

	path := TempFilePath(t, "trace_*.csv")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write log file: %v", err)
	}
	return path
}

// GenerateLog writes numLines synthetic records starting at startTime and
// returns the file path.
func GenerateLog(t *testing.T, numLines int, startTime float64) string {
	t.Helper()

	path := TempFilePath(t, "trace_gen_*.csv")
	if err := generator.WriteFile(path, numLines, startTime, 1); err != nil {
		t.Fatalf("Failed to generate log file: %v", err)
	}
	return path
}

// TempFilePath returns a temp file path inside the test's temp dir without
// creating the file.
func TempFilePath(t *testing.T, pattern string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	path := tmpFile.Name()
	tmpFile.Close()
	os.Remove(path)
	return path
}
