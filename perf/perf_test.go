package perf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStagesRegistry(t *testing.T) {
	ResetStages()
	RegisterStage("UnitFilter: lnb")
	RegisterStage("IOFilter: in")

	got := Stages()
	if len(got) != 2 || got[0] != "UnitFilter: lnb" || got[1] != "IOFilter: in" {
		t.Errorf("unexpected stages: %v", got)
	}

	ResetStages()
	if len(Stages()) != 0 {
		t.Error("ResetStages left stages behind")
	}
}

func TestTimerWritesRunBlock(t *testing.T) {
	ResetStages()
	RegisterStage("AreaFilter: host_if")

	dir := t.TempDir()
	timer, err := Start(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := timer.Stop(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{"Date: ", "Duration: ", "Filter Functions:", "AreaFilter: host_if", runDelimiter} {
		if !strings.Contains(content, want) {
			t.Errorf("metadata missing %q:\n%s", want, content)
		}
	}
}

func TestTimerAppends(t *testing.T) {
	ResetStages()
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		timer, err := Start(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := timer.Stop(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "Date: ") != 2 {
		t.Errorf("Expected two run blocks:\n%s", data)
	}
}
