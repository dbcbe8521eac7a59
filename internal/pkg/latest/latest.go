/*
Package latest implements last-request-wins ordering for asynchronous loads.

Begin starts a request for a resource key and cancels any request for the same
key that is still pending. When the response arrives, Ticket.Current reports
whether it is still the newest request; stale responses must be dropped.
*/
package latest

import (
	"context"
	"sync"
)

// Tracker hands out tickets per resource key.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]entry
}

type entry struct {
	seq    uint64
	cancel context.CancelFunc
}

// Ticket identifies one request.
type Ticket struct {
	t   *Tracker
	key string
	seq uint64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]entry)}
}

// Begin registers a new request for key, cancelling the previous one. The
// returned context is cancelled when a newer request for key begins or when
// Done is called.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	reqCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.pending[key]; ok {
		prev.cancel()
	}

	t.seq++
	t.pending[key] = entry{seq: t.seq, cancel: cancel}

	return reqCtx, Ticket{t: t, key: key, seq: t.seq}
}

// Current reports whether tk is the newest request for its key.
func (tk Ticket) Current() bool {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()

	e, ok := tk.t.pending[tk.key]
	return ok && e.seq == tk.seq
}

// Done releases the ticket. It reports whether tk was still current; only then
// may the caller apply the response.
func (tk Ticket) Done() bool {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()

	e, ok := tk.t.pending[tk.key]
	if !ok || e.seq != tk.seq {
		return false
	}

	e.cancel()
	delete(tk.t.pending, tk.key)
	return true
}
