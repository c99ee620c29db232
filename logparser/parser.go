// Package logparser decodes the fixed CSV trace grammar:
//
//	timestamp:<float>,cluster_id:chip:<int>;die:<int>;quad:<int>;row:<int>;col:<int>,area:<text>,unit:<text>,in/out:(in|out),tid:<int>,packet/data:<text>
//
// Parsing is byte-oriented with no regexp and no per-field allocations beyond
// the retained area/unit/packet strings. Lines that do not match the grammar
// are skipped by the streaming and counting paths; only the timestamp probe
// used by the binary search reports malformed input as an error.
package logparser

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/trace"
)

const timestampTag = "timestamp:"

var (
	sepUnit = []byte(",unit:")
	sepIO   = []byte(",in/out:")
)

// ParseLine parses one full line into a Record. The boolean is false when the
// line does not match the grammar; callers treat that as a parse miss, not an
// error.
func ParseLine(line []byte) (trace.Record, bool) {
	var rec trace.Record

	rest, ok := cutPrefix(line, "timestamp:")
	if !ok {
		return rec, false
	}
	ts, rest, ok := scanTimestamp(rest)
	if !ok {
		return rec, false
	}
	rec.Timestamp = ts

	if rest, ok = cutPrefix(rest, "cluster_id:chip:"); !ok {
		return rec, false
	}
	if rec.Cluster.Chip, rest, ok = scanInt(rest, ';'); !ok {
		return rec, false
	}
	if rest, ok = cutPrefix(rest, "die:"); !ok {
		return rec, false
	}
	if rec.Cluster.Die, rest, ok = scanInt(rest, ';'); !ok {
		return rec, false
	}
	if rest, ok = cutPrefix(rest, "quad:"); !ok {
		return rec, false
	}
	if rec.Cluster.Quad, rest, ok = scanInt(rest, ';'); !ok {
		return rec, false
	}
	if rest, ok = cutPrefix(rest, "row:"); !ok {
		return rec, false
	}
	if rec.Cluster.Row, rest, ok = scanInt(rest, ';'); !ok {
		return rec, false
	}
	if rest, ok = cutPrefix(rest, "col:"); !ok {
		return rec, false
	}
	if rec.Cluster.Col, rest, ok = scanIntSpaces(rest, ','); !ok {
		return rec, false
	}

	if rest, ok = cutPrefix(rest, "area:"); !ok {
		return rec, false
	}
	idx := bytes.Index(rest, sepUnit)
	if idx < 0 {
		return rec, false
	}
	rec.Area = string(rest[:idx])
	rest = rest[idx+len(sepUnit):]

	idx = bytes.Index(rest, sepIO)
	if idx < 0 {
		return rec, false
	}
	rec.Unit = string(rest[:idx])
	rest = rest[idx+len(sepIO):]

	idx = bytes.IndexByte(rest, ',')
	if idx < 0 {
		return rec, false
	}
	io, ok := trace.ParseIO(string(rest[:idx]))
	if !ok {
		return rec, false
	}
	rec.IO = io
	rest = rest[idx+1:]

	if rest, ok = cutPrefix(rest, "tid:"); !ok {
		return rec, false
	}
	if rec.Tid, rest, ok = scanInt(rest, ','); !ok {
		return rec, false
	}

	if rest, ok = cutPrefix(rest, "packet/data:"); !ok {
		return rec, false
	}
	rec.Packet = string(rest)

	return rec, true
}

// TimeFromLine extracts the whole-second timestamp from a raw line without
// parsing the rest of the record. Lines carrying no timestamp tag yield -1;
// a tag with an unparseable value is an error, since the binary search cannot
// make progress over it.
func TimeFromLine(line []byte) (int64, error) {
	pos := bytes.Index(line, []byte(timestampTag))
	if pos < 0 {
		return -1, nil
	}
	rest := line[pos+len(timestampTag):]
	end := bytes.IndexByte(rest, ',')
	if end < 0 {
		return -1, nil
	}
	return parseTimestamp(bytes.TrimRight(rest[:end], " "), false)
}

// parseTimestamp converts a fractional-seconds literal to whole seconds,
// truncating toward zero. When requireDot is set the literal must carry a
// decimal point, as the line grammar demands.
func parseTimestamp(b []byte, requireDot bool) (int64, error) {
	if requireDot && bytes.IndexByte(b, '.') < 0 {
		return 0, fmt.Errorf("timestamp %q lacks a decimal point: %w", b, errs.ErrInvalidFormat)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("timestamp %q: %w", b, errs.ErrOutOfRange)
		}
		return 0, fmt.Errorf("timestamp %q: %w", b, errs.ErrInvalidFormat)
	}
	return int64(v), nil
}

// scanTimestamp reads the leading fractional timestamp up to the field comma.
// Trailing spaces before the comma are tolerated, matching the source data.
func scanTimestamp(b []byte) (int64, []byte, bool) {
	end := bytes.IndexByte(b, ',')
	if end < 0 {
		return 0, nil, false
	}
	ts, err := parseTimestamp(bytes.TrimRight(b[:end], " "), true)
	if err != nil {
		return 0, nil, false
	}
	return ts, b[end+1:], true
}

// scanInt reads a possibly-signed decimal integer terminated by sep and
// consumes the separator.
func scanInt(b []byte, sep byte) (int, []byte, bool) {
	i := 0
	neg := false
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		n = n*10 + int(b[i]&0x0F)
		i++
	}
	if i == start || i >= len(b) || b[i] != sep {
		return 0, nil, false
	}
	if neg {
		n = -n
	}
	return n, b[i+1:], true
}

// scanIntSpaces is scanInt with optional spaces allowed before the separator.
func scanIntSpaces(b []byte, sep byte) (int, []byte, bool) {
	i := 0
	neg := false
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		n = n*10 + int(b[i]&0x0F)
		i++
	}
	if i == start {
		return 0, nil, false
	}
	for i < len(b) && b[i] == ' ' {
		i++
	}
	if i >= len(b) || b[i] != sep {
		return 0, nil, false
	}
	if neg {
		n = -n
	}
	return n, b[i+1:], true
}

func cutPrefix(b []byte, prefix string) ([]byte, bool) {
	if len(b) < len(prefix) || string(b[:len(prefix)]) != prefix {
		return b, false
	}
	return b[len(prefix):], true
}
