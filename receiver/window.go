package receiver

import (
	"github.com/alphadose/haxmap"

	"github.com/tracevis/tracevis/trace"
)

// ClusterStat aggregates arrivals for one cluster inside the window.
type ClusterStat struct {
	Last   int64
	DeltaT []int64
	Count  int
}

type timedKey struct {
	key uint64
	ts  int64
}

// Window keeps per-cluster arrival statistics over the most recent records,
// bounded by age and by entry count. Stats lives in a haxmap so status
// reporters can read it while the ingest loop writes.
type Window struct {
	queue      []timedKey
	Stats      *haxmap.Map[uint64, ClusterStat]
	maxAge     int64 // seconds
	maxEntries int
}

func NewWindow(maxAge int64, maxEntries int) *Window {
	return &Window{
		Stats:      haxmap.New[uint64, ClusterStat](1 << 12),
		maxAge:     maxAge,
		maxEntries: maxEntries,
	}
}

func insertStat(m *haxmap.Map[uint64, ClusterStat], key uint64, ts int64) {
	stat, exists := m.Get(key)
	if !exists {
		stat = ClusterStat{Last: ts}
	} else {
		stat.DeltaT = append(stat.DeltaT, ts-stat.Last)
	}
	stat.Last = ts
	stat.Count++
	m.Set(key, stat)
}

func dropStat(m *haxmap.Map[uint64, ClusterStat], key uint64) {
	stat, exists := m.Get(key)
	if !exists {
		return
	}
	stat.Count--
	if stat.Count <= 0 {
		m.Del(key)
		return
	}
	if len(stat.DeltaT) > 0 {
		stat.DeltaT = stat.DeltaT[1:]
	}
	m.Set(key, stat)
}

// InsertNew records a batch of arrivals.
func (w *Window) InsertNew(recs []trace.Record) {
	for _, rec := range recs {
		key := rec.Cluster.Hash()
		w.queue = append(w.queue, timedKey{key: key, ts: rec.Timestamp})
		insertStat(w.Stats, key, rec.Timestamp)
	}
}

// DropOld evicts entries older than the age limit relative to now, then
// enforces the entry cap.
func (w *Window) DropOld(now int64) {
	cutoff := now - w.maxAge
	idx := 0
	for idx < len(w.queue) && w.queue[idx].ts < cutoff {
		dropStat(w.Stats, w.queue[idx].key)
		idx++
	}

	remaining := len(w.queue) - idx
	if remaining > w.maxEntries {
		toDelete := remaining - w.maxEntries
		for i := 0; i < toDelete; i++ {
			dropStat(w.Stats, w.queue[idx+i].key)
		}
		idx += toDelete
	}

	if idx > 0 {
		// Copy so the evicted prefix can be collected.
		w.queue = append([]timedKey(nil), w.queue[idx:]...)
	}
}

// Update inserts a batch and evicts what fell out of the window.
func (w *Window) Update(recs []trace.Record, now int64) {
	w.InsertNew(recs)
	w.DropOld(now)
}

// Size reports how many arrivals the window currently holds.
func (w *Window) Size() int { return len(w.queue) }

// UniqueClusters reports how many distinct clusters have stats in the window.
func (w *Window) UniqueClusters() int { return int(w.Stats.Len()) }
