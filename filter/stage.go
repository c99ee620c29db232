package filter

import (
	"fmt"
	"strings"

	"github.com/tracevis/tracevis/perf"
	"github.com/tracevis/tracevis/stream"
	"github.com/tracevis/tracevis/trace"
)

// Stage wraps an upstream view and passes through only the records its
// predicate accepts. Stages hold no state beyond the upstream handle, so a
// chain is rebuilt by rewrapping rather than mutated in place.
type Stage struct {
	base stream.View
	pred func(trace.Record) bool
}

func (s *Stage) Next() (trace.Record, bool) {
	for {
		rec, ok := s.base.Next()
		if !ok {
			return trace.Record{}, false
		}
		if s.pred(rec) {
			return rec, true
		}
	}
}

// newStage registers the stage description for the performance metadata block
// and returns the wrapped view.
func newStage(desc string, base stream.View, pred func(trace.Record) bool) *Stage {
	perf.RegisterStage(desc)
	return &Stage{base: base, pred: pred}
}

func newThreadIdStage(base stream.View, tids []int) *Stage {
	set := make(map[int]struct{}, len(tids))
	for _, tid := range tids {
		set[tid] = struct{}{}
	}

	var desc string
	if len(tids) == 1 {
		desc = fmt.Sprintf("ThreadIdFilter: %d", tids[0])
	} else {
		parts := make([]string, len(tids))
		for i, tid := range tids {
			parts[i] = fmt.Sprintf("%d", tid)
		}
		desc = "ThreadIdFilter: multiple THREADIDs - " + strings.Join(parts, ", ")
	}

	return newStage(desc, base, func(rec trace.Record) bool {
		_, ok := set[rec.Tid]
		return ok
	})
}

func newClusterStage(base stream.View, c trace.Cluster) *Stage {
	return newStage("ClusterIdFilter: "+c.String(), base, func(rec trace.Record) bool {
		return rec.Cluster == c
	})
}

func newQuadStage(base stream.View, q trace.QuadKey) *Stage {
	desc := fmt.Sprintf("QuadFilter: %d in die: %d in chip: %d", q.Quad, q.Die, q.Chip)
	return newStage(desc, base, func(rec trace.Record) bool {
		return rec.Cluster.Chip == q.Chip && rec.Cluster.Die == q.Die && rec.Cluster.Quad == q.Quad
	})
}

func newUnitStage(base stream.View, unit string) *Stage {
	return newStage("UnitFilter: "+unit, base, func(rec trace.Record) bool {
		return rec.Unit == unit
	})
}

func newAreaStage(base stream.View, area string) *Stage {
	return newStage("AreaFilter: "+area, base, func(rec trace.Record) bool {
		return rec.Area == area
	})
}

func newIoStage(base stream.View, io string) *Stage {
	return newStage("IOFilter: "+io, base, func(rec trace.Record) bool {
		return rec.IO.String() == io
	})
}
