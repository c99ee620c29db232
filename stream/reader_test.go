package stream

import (
	"testing"

	"github.com/tracevis/tracevis/testutil"
	"github.com/tracevis/tracevis/trace"
)

func collect(r *Reader) []trace.Record {
	var out []trace.Record
	for {
		rec, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

func TestReader_FullFile(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	recs := collect(r)
	if len(recs) != 10 {
		t.Fatalf("Expected 10 records, got %d", len(recs))
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}

	// File order is preserved.
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp < recs[i-1].Timestamp {
			t.Error("records out of file order")
		}
	}
}

func TestReader_Window(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	r.SetStart(1726671833)
	r.SetEnd(1726671915)
	recs := collect(r)
	if len(recs) != 9 {
		t.Fatalf("Expected 9 records in window, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Timestamp < 1726671833 || rec.Timestamp > 1726671915 {
			t.Errorf("record at %d escaped the window", rec.Timestamp)
		}
	}
}

func TestReader_StartEqualsEnd_ExactHit(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	r.SetStart(1726671875)
	r.SetEnd(1726671875)
	recs := collect(r)
	if len(recs) != 1 {
		t.Fatalf("Expected exactly the record at 1726671875, got %d records", len(recs))
	}
	if recs[0].Timestamp != 1726671875 {
		t.Errorf("got record at %d", recs[0].Timestamp)
	}
}

func TestReader_StartEqualsEnd_NoHit(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	r.SetStart(1726671850)
	r.SetEnd(1726671850)
	if recs := collect(r); len(recs) != 0 {
		t.Errorf("Expected no records, got %d", len(recs))
	}
}

func TestReader_StartAfterEnd(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	r.SetStart(1726671915)
	r.SetEnd(1726671833)
	if recs := collect(r); len(recs) != 0 {
		t.Errorf("Expected no records when start > end, got %d", len(recs))
	}
}

func TestReader_EmptyFile(t *testing.T) {
	path := testutil.WriteLog(t, nil)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	if recs := collect(r); len(recs) != 0 {
		t.Errorf("Expected no records from an empty file, got %d", len(recs))
	}
}

func TestReader_Reset(t *testing.T) {
	path := testutil.WriteFixtureLog(t)
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}

	first := collect(r)
	r.Reset()
	second := collect(r)
	if len(first) != len(second) {
		t.Errorf("reset run yielded %d records, first run %d", len(second), len(first))
	}
}

func TestReader_SkipsUnparseableLines(t *testing.T) {
	lines := append([]string{}, testutil.FixtureLines[:3]...)
	lines = append(lines, "timestamp:1726671860.525302,this line is broken")
	lines = append(lines, testutil.FixtureLines[3:]...)
	path := testutil.WriteLog(t, lines)

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := collect(r)
	if len(recs) != 10 {
		t.Errorf("Expected 10 parseable records, got %d", len(recs))
	}
	if r.Misses() != 1 {
		t.Errorf("Expected 1 parse miss, got %d", r.Misses())
	}
}
