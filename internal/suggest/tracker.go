// Package suggest tracks in-flight search-as-you-type requests so that a newer
// keystroke supersedes, and cancels, the request it replaces.
package suggest

import (
	"context"
	"sync"
)

type key struct {
	session string
	field   string
}

type entry struct {
	seq    uint64
	cancel context.CancelFunc
}

// Tracker issues one live request per (session, field). Beginning a new
// request cancels the previous one for the same key. The zero value is not
// usable; call NewTracker.
type Tracker struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[key]entry
}

func NewTracker() *Tracker {
	return &Tracker{inflight: make(map[key]entry)}
}

// Ticket identifies a single request issued by Begin.
type Ticket struct {
	t   *Tracker
	k   key
	Seq uint64
}

// Begin registers a new request for session and field and returns a context
// that is cancelled when a newer request for the same key begins or when the
// ticket is done. Callers must call Done.
func (t *Tracker) Begin(ctx context.Context, session, field string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	k := key{session: session, field: field}

	t.mu.Lock()
	t.seq++
	seq := t.seq
	prev, ok := t.inflight[k]
	t.inflight[k] = entry{seq: seq, cancel: cancel}
	t.mu.Unlock()

	if ok {
		prev.cancel()
	}
	return ctx, &Ticket{t: t, k: k, Seq: seq}
}

// Latest reports whether no newer request for the same key has begun.
func (tk *Ticket) Latest() bool {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	e, ok := tk.t.inflight[tk.k]
	return ok && e.seq == tk.Seq
}

// Done releases the ticket and cancels its context.
func (tk *Ticket) Done() {
	tk.t.mu.Lock()
	e, ok := tk.t.inflight[tk.k]
	if ok && e.seq == tk.Seq {
		delete(tk.t.inflight, tk.k)
	}
	tk.t.mu.Unlock()

	if ok && e.seq == tk.Seq {
		e.cancel()
	}
}

// InFlight returns the number of keys with a live request.
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
