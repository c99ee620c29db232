// Package receiver accepts trace lines over the lumberjack v2 protocol (as
// shipped by filebeat), appends the well-formed ones to a log file, and keeps
// a sliding window of per-cluster arrival statistics.
package receiver

import (
	"errors"
	"fmt"
	"net"
	"time"

	lj "github.com/elastic/go-lumber/lj"
	srv2 "github.com/elastic/go-lumber/server/v2"

	"github.com/tracevis/tracevis/errs"
	"github.com/tracevis/tracevis/logparser"
	"github.com/tracevis/tracevis/trace"
)

// Entry is one received, successfully parsed trace line.
type Entry struct {
	Line string
	Rec  trace.Record
}

// Receiver is a lumberjack v2 server producing batches of trace entries.
type Receiver struct {
	listener    net.Listener
	readTimeout time.Duration
	events      chan *lj.Batch
	server      *srv2.Server
}

func New(addr string, readTimeout time.Duration) (*Receiver, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Receiver{
		listener:    ln,
		readTimeout: readTimeout,
		events:      make(chan *lj.Batch, 1000),
	}, nil
}

// Accept starts the lumberjack server and the goroutine that acks batches.
func (r *Receiver) Accept() error {
	srv, err := srv2.NewWithListener(
		r.listener,
		srv2.Timeout(r.readTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to launch lumberjack server: %v: %w", err, errs.ErrThreadCreation)
	}
	r.server = srv

	go func() {
		for batch := range r.server.ReceiveChan() {
			r.events <- batch
			batch.ACK()
		}
		close(r.events)
	}()

	return nil
}

// parseEvent extracts the trace line from a lumberjack event and parses it
// with the engine grammar.
func parseEvent(evt map[string]interface{}, out *Entry) error {
	msg, ok := evt["message"].(string)
	if !ok {
		return errors.New("missing message field")
	}
	rec, ok := logparser.ParseLine([]byte(msg))
	if !ok {
		return errors.New("line does not match trace grammar")
	}
	out.Line = msg
	out.Rec = rec
	return nil
}

// ReadBatch drains whatever batches are currently queued and returns their
// parseable entries. It does not block; an empty slice means nothing arrived.
func (r *Receiver) ReadBatch() ([]Entry, error) {
	var out []Entry

	for {
		select {
		case batch, ok := <-r.events:
			if !ok {
				return out, nil
			}
			for _, evt := range batch.Events {
				if m, ok := evt.(map[string]interface{}); ok {
					var entry Entry
					if err := parseEvent(m, &entry); err == nil {
						out = append(out, entry)
					}
				}
			}
		default:
			return out, nil
		}
	}
}

// IsClosed reports whether the server side has shut the event stream down.
func (r *Receiver) IsClosed() bool {
	if r.server == nil {
		return true
	}
	select {
	case batch, ok := <-r.events:
		if !ok {
			return true
		}
		// Put the batch back so its events are not lost.
		r.events <- batch
		return false
	default:
		return false
	}
}

// Close shuts down the server and listener.
func (r *Receiver) Close() error {
	if r.server != nil {
		r.server.Close()
	}
	return r.listener.Close()
}
