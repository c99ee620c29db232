package generator

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/tracevis/tracevis/logparser"
)

func TestWrite_ProducesParseableSortedLines(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 500, 1726671833.5, 1); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(&buf)
	count := 0
	last := int64(-1)
	for scanner.Scan() {
		rec, ok := logparser.ParseLine(scanner.Bytes())
		if !ok {
			t.Fatalf("generated line does not parse: %q", scanner.Text())
		}
		if rec.Timestamp < last {
			t.Fatal("generated timestamps are not sorted")
		}
		last = rec.Timestamp
		count++
	}
	if count != 500 {
		t.Errorf("Expected 500 lines, got %d", count)
	}
}

func TestWrite_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Write(&a, 100, 1726671833.5, 42); err != nil {
		t.Fatal(err)
	}
	if err := Write(&b, 100, 1726671833.5, 42); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("same seed must produce identical output")
	}
}

func TestWrite_Vocabulary(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 200, 1726671833.5, 1); err != nil {
		t.Fatal(err)
	}

	areaSet := make(map[string]bool, len(areas))
	for _, a := range areas {
		areaSet[a] = true
	}
	unitSet := make(map[string]bool, len(units))
	for _, u := range units {
		unitSet[u] = true
	}

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		rec, ok := logparser.ParseLine(scanner.Bytes())
		if !ok {
			t.Fatalf("generated line does not parse: %q", scanner.Text())
		}
		if !areaSet[rec.Area] {
			t.Errorf("area %q outside the vocabulary", rec.Area)
		}
		if !unitSet[rec.Unit] {
			t.Errorf("unit %q outside the vocabulary", rec.Unit)
		}
		if !strings.HasPrefix(rec.Packet, "sample data ") {
			t.Errorf("unexpected packet %q", rec.Packet)
		}
	}
}
