// internal/foodlog/pending.go
package foodlog

import "context"

// Pending is the outcome of one background persist.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the persist has completed or failed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the persist finishes and returns its error, or returns
// ctx.Err() if ctx ends first. The in-memory change is kept either way.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
