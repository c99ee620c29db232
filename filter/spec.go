// Package filter builds and manages the predicate chain applied on top of the
// streaming reader: user-facing filter spec parsing, the predicate stages, and
// the factory that owns the chain and its asynchronous producer.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/trace"
)

// Kind identifies a filter spec variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeRange
	KindTime
	KindThreadId
	KindCluster
	KindIo
	KindQuad
	KindUnit
	KindArea
)

var kindNames = map[string]Kind{
	"TimeRange": KindTimeRange,
	"Time":      KindTime,
	"ThreadId":  KindThreadId,
	"Cluster":   KindCluster,
	"Io":        KindIo,
	"Quad":      KindQuad,
	"Unit":      KindUnit,
	"Area":      KindArea,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "Unknown"
}

// IsTime reports whether the kind adjusts the reader's window rather than
// adding a chain stage.
func (k Kind) IsTime() bool {
	return k == KindTime || k == KindTimeRange
}

// Spec is one parsed filter specification. Exactly the payload fields for its
// kind are populated.
type Spec struct {
	Kind    Kind
	Start   int64
	End     int64
	Tids    []int
	Cluster trace.Cluster
	Quad    trace.QuadKey
	Text    string
}

// Parse decodes the user-facing "Kind=value" filter syntax:
//
//	TimeRange=<start>,<end>
//	Time=<value>
//	Cluster=chip:<i>,die:<i>,quad:<i>,row:<i>,col:<i>
//	Quad=Chip:<i>,Die:<i>,Quad:<i>
//	ThreadId=<i>,<i>,...
//	Unit=<text>  Area=<text>  Io=<text>
func Parse(text string) (Spec, error) {
	name, value, found := strings.Cut(text, "=")
	if !found {
		return Spec{}, fmt.Errorf("filter %q lacks '=': %w", text, errs.ErrInvalidFormat)
	}

	kind, ok := kindNames[name]
	if !ok {
		return Spec{}, fmt.Errorf("filter type %q: %w", name, errs.ErrUnknownKind)
	}

	switch kind {
	case KindTimeRange:
		return parseTimeRange(value)
	case KindTime:
		t, err := parseTimeValue(value)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: KindTime, Start: t, End: t}, nil
	case KindCluster:
		return parseCluster(value)
	case KindQuad:
		return parseQuad(value)
	case KindThreadId:
		return parseThreadIds(value)
	default: // Io, Unit, Area
		return Spec{Kind: kind, Text: value}, nil
	}
}

func parseTimeRange(value string) (Spec, error) {
	startStr, endStr, found := strings.Cut(value, ",")
	if !found {
		return Spec{}, fmt.Errorf("invalid TimeRange, expected 'TimeRange=start,end': %w", errs.ErrInvalidFormat)
	}
	start, err := parseTimeValue(startStr)
	if err != nil {
		return Spec{}, err
	}
	end, err := parseTimeValue(endStr)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Kind: KindTimeRange, Start: start, End: end}, nil
}

// parseTimeValue converts a fractional-seconds literal to whole seconds,
// truncating toward zero.
func parseTimeValue(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("time value %q: %w", s, errs.ErrOutOfRange)
		}
		return 0, fmt.Errorf("time value %q: %w", s, errs.ErrInvalidFormat)
	}
	return int64(v), nil
}

func parseCluster(value string) (Spec, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 5 {
		return Spec{}, fmt.Errorf("Cluster takes 5 coordinates, got %d: %w", len(parts), errs.ErrInvalidParameterCount)
	}
	coords := make([]int, 5)
	for i, part := range parts {
		v, err := taggedInt(part)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid Cluster, expected 'Cluster=chip:<i>,die:<i>,quad:<i>,row:<i>,col:<i>': %w", err)
		}
		coords[i] = v
	}
	return Spec{
		Kind: KindCluster,
		Cluster: trace.Cluster{
			Chip: coords[0], Die: coords[1], Quad: coords[2], Row: coords[3], Col: coords[4],
		},
	}, nil
}

func parseQuad(value string) (Spec, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return Spec{}, fmt.Errorf("Quad takes 3 coordinates, got %d: %w", len(parts), errs.ErrInvalidParameterCount)
	}
	coords := make([]int, 3)
	for i, part := range parts {
		v, err := taggedInt(part)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid Quad, expected 'Quad=Chip:<i>,Die:<i>,Quad:<i>': %w", err)
		}
		coords[i] = v
	}
	return Spec{
		Kind: KindQuad,
		Quad: trace.QuadKey{Chip: coords[0], Die: coords[1], Quad: coords[2]},
	}, nil
}

func parseThreadIds(value string) (Spec, error) {
	parts := strings.Split(value, ",")
	tids := make([]int, 0, len(parts))
	for _, part := range parts {
		tid, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Spec{}, fmt.Errorf("invalid ThreadId, expected 'ThreadId=value1,value2,...': %w", errs.ErrInvalidFormat)
		}
		tids = append(tids, tid)
	}
	if len(tids) == 0 {
		return Spec{}, fmt.Errorf("ThreadId takes at least one id: %w", errs.ErrInvalidParameterCount)
	}
	return Spec{Kind: KindThreadId, Tids: tids}, nil
}

// taggedInt extracts the integer after the colon of a "tag:<int>" part. Tags
// are positional; their names are not validated.
func taggedInt(part string) (int, error) {
	_, after, found := strings.Cut(part, ":")
	if !found {
		return 0, fmt.Errorf("missing ':' in %q: %w", part, errs.ErrInvalidFormat)
	}
	v, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return 0, fmt.Errorf("bad integer in %q: %w", part, errs.ErrInvalidFormat)
	}
	return v, nil
}

// Help is the user-facing filter syntax reference printed by --help-filters.
const Help = `Available filters and their expected formats:
  TimeRange: TimeRange=start,end (e.g., TimeRange=1726671491.525302,1726671531.525302)
  Time: Time=value (e.g., Time=1723972947.9661083)
  Quad: Quad=Chip:<value>,Die:<value>,Quad:<value> (e.g., Quad=Chip:0,Die:1,Quad:2)
  ThreadId: ThreadId=value1,value2,... (e.g., ThreadId=7,10,15)
  Unit: Unit=value (e.g., Unit=iqr)
  Area: Area=value (e.g., Area=bmt)
  Io: Io=value (e.g., Io=in)
  Cluster: Cluster=chip:<value>,die:<value>,quad:<value>,row:<value>,col:<value> (e.g., Cluster=chip:0,die:1,quad:2,row:3,col:-1)
`
