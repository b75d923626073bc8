package application

import (
	"context"
	"math"

	"golang.org/x/sync/semaphore"
)

// gateWeight is the write side of the gate. Each query takes one unit, a
// mutation takes all of them.
const gateWeight = math.MaxInt32

// Gate serializes vault access. Mutations hold the write side and run to
// completion; queries hold the read side and may overlap each other but
// never an in-flight mutation. One Gate is shared by every service that
// touches the same pair of stores.
//
// Waiting for either side honours the caller's context, so a read queued
// behind a hung store call gives up at its own deadline.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a Gate.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(gateWeight)}
}

// mutate runs fn under the write side with a context that ignores caller
// cancellation, so a started multi-step mutation always reaches its end.
// Cancellation before the gate is acquired returns the context error and
// touches no store.
func (g *Gate) mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, gateWeight); err != nil {
		return err
	}
	defer g.sem.Release(gateWeight)
	return fn(context.WithoutCancel(ctx))
}

// query runs fn under the read side.
func (g *Gate) query(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn(ctx)
}
