package logparser

import (
	"errors"
	"testing"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/trace"
)

var testLine = []byte("timestamp:1726671833.525302,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:mcu gate 1,unit:BMT,in/out:in,tid:117,packet/data:sample data 0")

func TestParseLine_AllFields(t *testing.T) {
	rec, ok := ParseLine(testLine)
	if !ok {
		t.Fatal("expected line to parse")
	}

	if rec.Timestamp != 1726671833 {
		t.Errorf("Expected timestamp 1726671833, got %d", rec.Timestamp)
	}
	want := trace.Cluster{Chip: 0, Die: 0, Quad: 0, Row: 1, Col: 1}
	if rec.Cluster != want {
		t.Errorf("Expected cluster %v, got %v", want, rec.Cluster)
	}
	if rec.Area != "mcu gate 1" {
		t.Errorf("Expected area 'mcu gate 1', got %q", rec.Area)
	}
	if rec.Unit != "BMT" {
		t.Errorf("Expected unit BMT, got %q", rec.Unit)
	}
	if rec.IO != trace.In {
		t.Errorf("Expected io in, got %v", rec.IO)
	}
	if rec.Tid != 117 {
		t.Errorf("Expected tid 117, got %d", rec.Tid)
	}
	if rec.Packet != "sample data 0" {
		t.Errorf("Expected packet 'sample data 0', got %q", rec.Packet)
	}
}

func TestParseLine_NegativeCoordinates(t *testing.T) {
	line := []byte("timestamp:1726671833.5,cluster_id:chip:-1;die:-1;quad:2;row:3;col:-1,area:bmt,unit:iqr,in/out:out,tid:-4,packet/data:x")
	rec, ok := ParseLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	want := trace.Cluster{Chip: -1, Die: -1, Quad: 2, Row: 3, Col: -1}
	if rec.Cluster != want {
		t.Errorf("Expected cluster %v, got %v", want, rec.Cluster)
	}
	if rec.IO != trace.Out {
		t.Errorf("Expected io out, got %v", rec.IO)
	}
	if rec.Tid != -4 {
		t.Errorf("Expected tid -4, got %d", rec.Tid)
	}
}

func TestParseLine_SpacesBeforeSeparators(t *testing.T) {
	// The source data occasionally pads the timestamp and col fields.
	line := []byte("timestamp:1726671833.5 ,cluster_id:chip:0;die:0;quad:0;row:1;col:1 ,area:hbm,unit:lnb,in/out:in,tid:7,packet/data:d")
	rec, ok := ParseLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Timestamp != 1726671833 || rec.Cluster.Col != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestParseLine_Rejects(t *testing.T) {
	lines := []string{
		"",
		"garbage",
		"timestamp:1726671833,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:a,unit:u,in/out:in,tid:1,packet/data:p", // no decimal point
		"timestamp:1726671833.5,cluster_id:chip:0;die:0;quad:0;row:1,area:a,unit:u,in/out:in,tid:1,packet/data:p",     // missing col
		"timestamp:1726671833.5,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:a,unit:u,in/out:inward,tid:1,packet/data:p",
		"timestamp:1726671833.5,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:a,unit:u,in/out:in,tid:x,packet/data:p",
		"timestamp:1726671833.5,cluster_id:chip:0;die:0;quad:0;row:1;col:1,area:a,unit:u,in/out:in,tid:1",
	}
	for _, line := range lines {
		if _, ok := ParseLine([]byte(line)); ok {
			t.Errorf("expected %q to be rejected", line)
		}
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	rec, ok := ParseLine(testLine)
	if !ok {
		t.Fatal("expected line to parse")
	}

	line := rec.AppendLine(nil)
	again, ok := ParseLine(line)
	if !ok {
		t.Fatalf("rendered line did not parse: %q", line)
	}
	if again != rec {
		t.Errorf("round trip mismatch: %+v vs %+v", rec, again)
	}
}

func TestTimeFromLine(t *testing.T) {
	ts, err := TimeFromLine(testLine)
	if err != nil {
		t.Fatal(err)
	}
	if ts != 1726671833 {
		t.Errorf("Expected 1726671833, got %d", ts)
	}
}

func TestTimeFromLine_NoTag(t *testing.T) {
	ts, err := TimeFromLine([]byte("no timestamp here"))
	if err != nil {
		t.Fatal(err)
	}
	if ts != -1 {
		t.Errorf("Expected -1 for missing tag, got %d", ts)
	}
}

func TestTimeFromLine_Malformed(t *testing.T) {
	_, err := TimeFromLine([]byte("timestamp:not-a-number,rest"))
	if !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("Expected ErrInvalidFormat, got %v", err)
	}
}

func TestTimeFromLine_OutOfRange(t *testing.T) {
	_, err := TimeFromLine([]byte("timestamp:1e500,rest"))
	if !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}

func BenchmarkParseLine(b *testing.B) {
	b.SetBytes(int64(len(testLine)))
	for i := 0; i < b.N; i++ {
		if _, ok := ParseLine(testLine); !ok {
			b.Fatal("parse failed")
		}
	}
}
