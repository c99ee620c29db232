// Package trace defines the value types shared by the filtering and counting
// pipelines: a parsed trace record, its five-coordinate hardware location, and
// the quad projection used as a histogram key.
package trace

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// IO is the direction of a traced event.
type IO uint8

const (
	In IO = iota
	Out
)

// ParseIO maps the on-disk direction token to its enum value.
func ParseIO(s string) (IO, bool) {
	switch s {
	case "in":
		return In, true
	case "out":
		return Out, true
	}
	return In, false
}

func (io IO) String() string {
	if io == Out {
		return "out"
	}
	return "in"
}

// Cluster is a five-coordinate hardware location. Any coordinate may be
// negative; the source data uses negative values as wildcard sentinels.
type Cluster struct {
	Chip int
	Die  int
	Quad int
	Row  int
	Col  int
}

// Quad returns the (chip, die, quad) projection of the cluster.
func (c Cluster) Quad() QuadKey {
	return QuadKey{Chip: c.Chip, Die: c.Die, Quad: c.Quad}
}

// Hash mixes all five coordinates into a 64-bit key. Trace distributions pack
// many records into the same (chip, die, quad) triple, so every coordinate has
// to contribute to the hash.
func (c Cluster) Hash() uint64 {
	var buf [40]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(int64(c.Chip)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(c.Die)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(c.Quad)))
	binary.LittleEndian.PutUint64(buf[24:], uint64(int64(c.Row)))
	binary.LittleEndian.PutUint64(buf[32:], uint64(int64(c.Col)))
	return xxhash.Sum64(buf[:])
}

func (c Cluster) String() string {
	return fmt.Sprintf("chip:%d, die:%d, quad:%d, row:%d, col:%d", c.Chip, c.Die, c.Quad, c.Row, c.Col)
}

// QuadKey is the (chip, die, quad) projection of a Cluster.
type QuadKey struct {
	Chip int
	Die  int
	Quad int
}

func (q QuadKey) String() string {
	return fmt.Sprintf("Chip: %d, Die: %d, Quad: %d", q.Chip, q.Die, q.Quad)
}

// Record is one parsed trace event. Timestamps are whole seconds, truncated
// from the fractional literal carried by the log line; records at the same
// second therefore compare equal even when the source had sub-second order.
type Record struct {
	Timestamp int64
	Cluster   Cluster
	Area      string
	Unit      string
	IO        IO
	Tid       int
	Packet    string
}

// AppendLine renders the record in the input grammar (without a trailing
// newline) so filtered output can be re-read by the same parser. The
// fractional part of the timestamp is not retained by Record, so it is
// rendered as zero microseconds.
func (r Record) AppendLine(dst []byte) []byte {
	dst = append(dst, "timestamp:"...)
	dst = strconv.AppendInt(dst, r.Timestamp, 10)
	dst = append(dst, ".000000,cluster_id:chip:"...)
	dst = strconv.AppendInt(dst, int64(r.Cluster.Chip), 10)
	dst = append(dst, ";die:"...)
	dst = strconv.AppendInt(dst, int64(r.Cluster.Die), 10)
	dst = append(dst, ";quad:"...)
	dst = strconv.AppendInt(dst, int64(r.Cluster.Quad), 10)
	dst = append(dst, ";row:"...)
	dst = strconv.AppendInt(dst, int64(r.Cluster.Row), 10)
	dst = append(dst, ";col:"...)
	dst = strconv.AppendInt(dst, int64(r.Cluster.Col), 10)
	dst = append(dst, ",area:"...)
	dst = append(dst, r.Area...)
	dst = append(dst, ",unit:"...)
	dst = append(dst, r.Unit...)
	dst = append(dst, ",in/out:"...)
	dst = append(dst, r.IO.String()...)
	dst = append(dst, ",tid:"...)
	dst = strconv.AppendInt(dst, int64(r.Tid), 10)
	dst = append(dst, ",packet/data:"...)
	dst = append(dst, r.Packet...)
	return dst
}
