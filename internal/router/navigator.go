package router

import (
	"context"
	"sync"
)

// Checker is satisfied by *Guard.
type Checker interface {
	Check(ctx context.Context, target Name) Decision
}

// Ticket is one requested transition. Only the most recent ticket's
// decision may be applied.
type Ticket struct {
	Seq    uint64
	Target Name
	ctx    context.Context
}

// Navigator serialises transitions: beginning a new one cancels the
// revalidation of the previous one and makes its decision stale.
type Navigator struct {
	guard Checker

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewNavigator(guard Checker) *Navigator {
	return &Navigator{guard: guard}
}

// Begin stamps a new transition to target.
func (n *Navigator) Begin(parent context.Context, target Name) Ticket {
	ctx, cancel := context.WithCancel(parent)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	n.seq++
	n.cancel = cancel
	return Ticket{Seq: n.seq, Target: target, ctx: ctx}
}

// Run evaluates the guard for t. It may be called from any goroutine.
func (n *Navigator) Run(t Ticket) Decision {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return n.guard.Check(ctx, t.Target)
}

// Current reports whether t is still the latest transition.
func (n *Navigator) Current(t Ticket) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return t.Seq == n.seq
}

// Done releases t's resources once its decision has been handled.
func (n *Navigator) Done(t Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t.Seq == n.seq && n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}
