package tool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is one branch's result from a fan-out: either a value or the
// branch's own failure. Branches never affect each other's outcome.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Failed reports whether the branch failed.
func (o Outcome[T]) Failed() bool { return o.Err != nil }

// JoinAll runs every branch concurrently, bounded by limit when limit > 0,
// and waits for all of them. It returns one outcome per branch, in branch
// order. A failing branch does not cancel the others; the caller aggregates
// after every branch has completed or failed individually. Branches share
// no mutable state beyond their inputs; each writes only its own slot.
//
// No timeout is imposed here; a branch that hangs holds up the join, so
// branch work should carry its own network-level deadline.
func JoinAll[T any](ctx context.Context, limit int, branches []func(context.Context) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], len(branches))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, branch := range branches {
		g.Go(func() error {
			value, err := branch(ctx)
			outcomes[i] = Outcome[T]{Value: value, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
