// Package counter computes the five frequency histograms over a whole trace
// log in parallel: the file is split into byte ranges, each worker aligns its
// range to record boundaries and counts locally, and the local histograms are
// merged at the end.
package counter

import (
	"fmt"
	"io"
	"sort"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/trace"
)

// Histogram section names, matching the filter kind vocabulary used on the
// command line and in the interactive lookup.
const (
	NameThreadId = "ThreadId"
	NameUnit     = "Unit"
	NameArea     = "Area"
	NameCluster  = "Cluster"
	NameQuad     = "Quad"
)

// Names lists the five histogram names in their persisted order.
var Names = []string{NameThreadId, NameUnit, NameArea, NameCluster, NameQuad}

const sectionDelimiter = "-----------------------------------------------------------------------------"

// Histograms holds the five frequency maps produced by a count run. Entries
// are created lazily on first observation of a key.
type Histograms struct {
	Tid     map[int]int
	Unit    map[string]int
	Area    map[string]int
	Cluster map[trace.Cluster]int
	Quad    map[trace.QuadKey]int
}

func NewHistograms() *Histograms {
	return &Histograms{
		Tid:     make(map[int]int),
		Unit:    make(map[string]int),
		Area:    make(map[string]int),
		Cluster: make(map[trace.Cluster]int),
		Quad:    make(map[trace.QuadKey]int),
	}
}

// Observe counts one record in all five histograms.
func (h *Histograms) Observe(rec trace.Record) {
	h.Tid[rec.Tid]++
	h.Unit[rec.Unit]++
	h.Area[rec.Area]++
	h.Cluster[rec.Cluster]++
	h.Quad[rec.Cluster.Quad()]++
}

// Merge folds other into h. Merge order does not affect the final counts.
func (h *Histograms) Merge(other *Histograms) {
	for k, v := range other.Tid {
		h.Tid[k] += v
	}
	for k, v := range other.Unit {
		h.Unit[k] += v
	}
	for k, v := range other.Area {
		h.Area[k] += v
	}
	for k, v := range other.Cluster {
		h.Cluster[k] += v
	}
	for k, v := range other.Quad {
		h.Quad[k] += v
	}
}

// Total returns the number of parsed records, which every histogram sums to.
func (h *Histograms) Total() int {
	total := 0
	for _, v := range h.Tid {
		total += v
	}
	return total
}

// WriteSection writes one named histogram in the persisted text form, keys
// sorted for stable output. Unrecognized names are a user-facing error.
func (h *Histograms) WriteSection(w io.Writer, name string) error {
	switch name {
	case NameThreadId:
		keys := make([]int, 0, len(h.Tid))
		for k := range h.Tid {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		fmt.Fprintf(w, "Total %s:\n", name)
		for _, k := range keys {
			fmt.Fprintf(w, "%s - %d : %d\n", name, k, h.Tid[k])
		}
	case NameUnit:
		writeStringSection(w, name, h.Unit)
	case NameArea:
		writeStringSection(w, name, h.Area)
	case NameCluster:
		keys := make([]trace.Cluster, 0, len(h.Cluster))
		for k := range h.Cluster {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return clusterLess(keys[i], keys[j]) })
		fmt.Fprintf(w, "Total %s:\n", name)
		for _, k := range keys {
			fmt.Fprintf(w, "%s - %s : %d\n", name, k, h.Cluster[k])
		}
	case NameQuad:
		keys := make([]trace.QuadKey, 0, len(h.Quad))
		for k := range h.Quad {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return quadLess(keys[i], keys[j]) })
		fmt.Fprintf(w, "Total %s:\n", name)
		for _, k := range keys {
			fmt.Fprintf(w, "%s - %s : %d\n", name, k, h.Quad[k])
		}
	default:
		return fmt.Errorf("no histogram named %q: %w", name, errs.ErrUnknownKind)
	}
	return nil
}

// WriteResults persists all five histograms, each section followed by a
// dashed delimiter line.
func (h *Histograms) WriteResults(w io.Writer) error {
	for _, name := range Names {
		if err := h.WriteSection(w, name); err != nil {
			return err
		}
		fmt.Fprintln(w, sectionDelimiter)
	}
	return nil
}

func writeStringSection(w io.Writer, name string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "Total %s:\n", name)
	for _, k := range keys {
		fmt.Fprintf(w, "%s - %s : %d\n", name, k, m[k])
	}
}

func clusterLess(a, b trace.Cluster) bool {
	if a.Chip != b.Chip {
		return a.Chip < b.Chip
	}
	if a.Die != b.Die {
		return a.Die < b.Die
	}
	if a.Quad != b.Quad {
		return a.Quad < b.Quad
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

func quadLess(a, b trace.QuadKey) bool {
	if a.Chip != b.Chip {
		return a.Chip < b.Chip
	}
	if a.Die != b.Die {
		return a.Die < b.Die
	}
	return a.Quad < b.Quad
}
