package filter

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/perf"
	"github.com/tracevis/tracevis/stream"
	"github.com/tracevis/tracevis/trace"
)

// farFuture rejects corrupt dates pushed by the producer. Preserved verbatim
// from the reference data set.
const farFuture = 3025236764272

// Factory owns the streaming reader and the ordered filter specs layered over
// it. Time specs adjust the reader's window; every other kind becomes a chain
// stage. Update keeps one spec per kind, while Add appends a stage even when
// that kind is already present. The factory also runs the asynchronous
// producer that drains the chain into a hand-off queue for a consumer.
type Factory struct {
	reader *stream.Reader
	specs  []Spec
	chain  stream.View

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []trace.Record
	finished bool
	prodDone chan struct{}
}

// NewFactory opens the log file and builds an empty chain over its reader.
func NewFactory(path string) (*Factory, error) {
	reader, err := stream.NewReader(path)
	if err != nil {
		return nil, err
	}
	f := &Factory{reader: reader, chain: reader}
	f.cond = sync.NewCond(&f.mu)
	return f, nil
}

// Reader exposes the underlying reader, whose lifetime is bound to the
// factory.
func (f *Factory) Reader() *stream.Reader { return f.reader }

// SetStartTime forwards the window start to the reader.
func (f *Factory) SetStartTime(t int64) {
	log.Debug().Int64("start", t).Msg("window start set")
	f.reader.SetStart(t)
}

// SetEndTime forwards the window end to the reader.
func (f *Factory) SetEndTime(t int64) {
	log.Debug().Int64("end", t).Msg("window end set")
	f.reader.SetEnd(t)
}

// Apply routes a spec: time kinds move the reader's window, everything else
// is added to the chain.
func (f *Factory) Apply(sp Spec) error {
	if sp.Kind.IsTime() {
		f.SetStartTime(sp.Start)
		f.SetEndTime(sp.End)
		return nil
	}
	return f.Add(sp)
}

// Add pushes a spec and wraps the chain with its stage.
func (f *Factory) Add(sp Spec) error {
	chain, err := f.buildStage(sp, f.chain)
	if err != nil {
		return err
	}
	f.chain = chain
	f.specs = append(f.specs, sp)
	return nil
}

// Update replaces an existing spec of the same kind and rebuilds the chain
// from scratch, preserving stage order; absent that kind it behaves as Add.
func (f *Factory) Update(sp Spec) error {
	found := false
	for i := range f.specs {
		if f.specs[i].Kind == sp.Kind {
			f.specs[i] = sp
			found = true
		}
	}
	if !found {
		return f.Add(sp)
	}
	return f.rebuild()
}

// Remove drops all specs of the given kind and rebuilds the chain.
func (f *Factory) Remove(kind Kind) error {
	kept := f.specs[:0]
	for _, sp := range f.specs {
		if sp.Kind != kind {
			kept = append(kept, sp)
		}
	}
	f.specs = kept
	return f.rebuild()
}

// Clear drops every spec; the chain becomes the bare reader.
func (f *Factory) Clear() {
	f.specs = nil
	f.chain = f.reader
	perf.RegisterStage("clear all filters")
}

// Value returns the spec currently held for a kind.
func (f *Factory) Value(kind Kind) (Spec, bool) {
	for _, sp := range f.specs {
		if sp.Kind == kind {
			return sp, true
		}
	}
	return Spec{}, false
}

// Filtered rewinds the reader and returns the chain's lazy sequence.
func (f *Factory) Filtered() stream.View {
	f.reader.Reset()
	return f.chain
}

func (f *Factory) rebuild() error {
	chain := stream.View(f.reader)
	for _, sp := range f.specs {
		next, err := f.buildStage(sp, chain)
		if err != nil {
			return err
		}
		chain = next
	}
	f.chain = chain
	return nil
}

func (f *Factory) buildStage(sp Spec, base stream.View) (stream.View, error) {
	switch sp.Kind {
	case KindThreadId:
		return newThreadIdStage(base, sp.Tids), nil
	case KindCluster:
		return newClusterStage(base, sp.Cluster), nil
	case KindQuad:
		return newQuadStage(base, sp.Quad), nil
	case KindUnit:
		return newUnitStage(base, sp.Text), nil
	case KindArea:
		return newAreaStage(base, sp.Text), nil
	case KindIo:
		return newIoStage(base, sp.Text), nil
	}
	return nil, fmt.Errorf("filter kind %v cannot form a stage: %w", sp.Kind, errs.ErrUnknownKind)
}

// Start launches the producer goroutine draining the chain into the hand-off
// queue. A producer already running from a previous Start is joined first;
// at most one runs at a time.
func (f *Factory) Start() {
	f.Join()

	f.reader.Reset()
	f.mu.Lock()
	f.queue = f.queue[:0]
	f.finished = false
	f.mu.Unlock()

	done := make(chan struct{})
	f.prodDone = done

	go func() {
		defer close(done)
		for {
			rec, ok := f.chain.Next()
			if !ok {
				break
			}
			if rec.Timestamp > 0 && rec.Timestamp < farFuture {
				f.mu.Lock()
				f.queue = append(f.queue, rec)
				f.mu.Unlock()
				f.cond.Signal()
			}
		}
		f.mu.Lock()
		f.finished = true
		f.mu.Unlock()
		f.cond.Broadcast()
	}()
}

// HasLog reports whether a record is waiting in the queue.
func (f *Factory) HasLog() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) > 0
}

// GetLog pops the next queued record without blocking.
func (f *Factory) GetLog() (trace.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return trace.Record{}, fmt.Errorf("no filtered records available: %w", errs.ErrNoData)
	}
	rec := f.queue[0]
	f.queue = f.queue[1:]
	return rec, nil
}

// WaitLog blocks until a record is available or the producer has finished
// with the queue drained. The boolean is false once the sequence is over.
func (f *Factory) WaitLog() (trace.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 && !f.finished {
		f.cond.Wait()
	}
	if len(f.queue) == 0 {
		return trace.Record{}, false
	}
	rec := f.queue[0]
	f.queue = f.queue[1:]
	return rec, true
}

// Finished reports whether the producer has drained the chain.
func (f *Factory) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// Join blocks until the current producer exits. It must be called before the
// factory is discarded so no goroutine outlives the reader it borrows.
func (f *Factory) Join() {
	if f.prodDone != nil {
		<-f.prodDone
		f.prodDone = nil
	}
}
