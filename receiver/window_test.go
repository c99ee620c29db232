package receiver

import (
	"testing"

	"github.com/tracevis/tracevis/trace"
)

func recAt(ts int64, quad int) trace.Record {
	return trace.Record{
		Timestamp: ts,
		Cluster:   trace.Cluster{Chip: 0, Die: 0, Quad: quad, Row: 1, Col: 1},
	}
}

func TestWindow_InsertTracksStats(t *testing.T) {
	w := NewWindow(3600, 100)
	w.InsertNew([]trace.Record{recAt(100, 0), recAt(110, 0), recAt(120, 1)})

	if w.Size() != 3 {
		t.Errorf("Expected window size 3, got %d", w.Size())
	}
	if w.UniqueClusters() != 2 {
		t.Errorf("Expected 2 unique clusters, got %d", w.UniqueClusters())
	}

	key := recAt(0, 0).Cluster.Hash()
	stat, ok := w.Stats.Get(key)
	if !ok {
		t.Fatal("missing stats for cluster")
	}
	if stat.Count != 2 || stat.Last != 110 {
		t.Errorf("unexpected stat: %+v", stat)
	}
	if len(stat.DeltaT) != 1 || stat.DeltaT[0] != 10 {
		t.Errorf("unexpected inter-arrival deltas: %v", stat.DeltaT)
	}
}

func TestWindow_DropOldByAge(t *testing.T) {
	w := NewWindow(60, 100)
	w.InsertNew([]trace.Record{recAt(100, 0), recAt(130, 0), recAt(170, 1)})

	w.DropOld(200)
	if w.Size() != 1 {
		t.Errorf("Expected 1 entry after age eviction, got %d", w.Size())
	}
	if w.UniqueClusters() != 1 {
		t.Errorf("Expected 1 surviving cluster, got %d", w.UniqueClusters())
	}

	w.DropOld(300)
	if w.Size() != 0 {
		t.Errorf("Expected empty window, got %d entries", w.Size())
	}
	if w.UniqueClusters() != 0 {
		t.Errorf("Expected no cluster stats, got %d", w.UniqueClusters())
	}
}

func TestWindow_DropOldByCapacity(t *testing.T) {
	w := NewWindow(1<<30, 2)
	w.Update([]trace.Record{recAt(100, 0), recAt(101, 1), recAt(102, 2), recAt(103, 3)}, 104)

	if w.Size() != 2 {
		t.Errorf("Expected the capacity cap to hold, got %d entries", w.Size())
	}
	if w.UniqueClusters() != 2 {
		t.Errorf("Expected 2 surviving clusters, got %d", w.UniqueClusters())
	}
}
