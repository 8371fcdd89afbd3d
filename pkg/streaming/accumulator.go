// Package streaming provides the pass-through accumulator that normalizes
// streamed agent replies: chunks are forwarded to the consumer as they
// arrive and concatenated into the canonical final text used for history
// recording.
package streaming

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ErrIncomplete is returned by Text when the stream did not run to
// completion. An incomplete buffer must never be recorded as history.
var ErrIncomplete = fmt.Errorf("stream terminated before completion")

// Accumulator is a single-producer, single-consumer forwarding sink. The
// producer pushes chunks with Write and finishes with Close or Fail; the
// consumer ranges over Out. Forwarding is unbuffered, so a paused consumer
// pauses the producer instead of dropping chunks.
type Accumulator struct {
	out  chan string
	done chan struct{}

	mu       sync.Mutex
	buf      strings.Builder
	complete bool
	err      error
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		out:  make(chan string),
		done: make(chan struct{}),
	}
}

// Out is the consumer-facing chunk channel. It is closed when the producer
// calls Close or Fail.
func (a *Accumulator) Out() <-chan string {
	return a.out
}

// Done is closed once the stream has terminated, completely or not.
func (a *Accumulator) Done() <-chan struct{} {
	return a.done
}

// Write forwards one chunk to the consumer and appends it to the buffer.
// It blocks until the consumer takes the chunk or ctx is cancelled; on
// cancellation the stream is failed and the buffer marked incomplete.
func (a *Accumulator) Write(ctx context.Context, chunk string) error {
	select {
	case a.out <- chunk:
	case <-ctx.Done():
		a.Fail(ctx.Err())
		return ctx.Err()
	}

	a.mu.Lock()
	a.buf.WriteString(chunk)
	a.mu.Unlock()
	return nil
}

// Close marks the stream complete and releases the consumer.
func (a *Accumulator) Close() {
	a.mu.Lock()
	if a.terminatedLocked() {
		a.mu.Unlock()
		return
	}
	a.complete = true
	a.mu.Unlock()

	close(a.out)
	close(a.done)
}

// Fail marks the stream terminated without completing. The buffer keeps
// the chunks received so far but Text refuses to return them.
func (a *Accumulator) Fail(err error) {
	a.mu.Lock()
	if a.terminatedLocked() {
		a.mu.Unlock()
		return
	}
	if err == nil {
		err = ErrIncomplete
	}
	a.err = err
	a.mu.Unlock()

	close(a.out)
	close(a.done)
}

// Completed reports whether the stream ran to a clean completion.
func (a *Accumulator) Completed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.complete
}

// Err returns the termination error for a failed stream, nil otherwise.
func (a *Accumulator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Text returns the accumulated text. Valid only after clean completion;
// before termination or after a failure it returns ErrIncomplete (wrapping
// the failure cause if there is one).
func (a *Accumulator) Text() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.complete {
		if a.err != nil {
			return "", fmt.Errorf("%w: %w", ErrIncomplete, a.err)
		}
		return "", ErrIncomplete
	}
	return a.buf.String(), nil
}

func (a *Accumulator) terminatedLocked() bool {
	return a.complete || a.err != nil
}
