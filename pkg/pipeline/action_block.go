package pipeline

import (
	"context"
	"fmt"
)

// ActionFunc defines the function signature for actions
type ActionFunc[T any] func(ctx context.Context, msg T) error

// ActionBlock runs an action for every message. It is the end of a pipeline.
type ActionBlock[T any] struct {
	*baseBlock
	in      *inbox[T]
	action  ActionFunc[T]
	options BlockOptions
}

// NewActionBlock creates a new ActionBlock with the specified action function and options
// Default behavior: no retry, sequential processing (1 worker)
func NewActionBlock[T any](action ActionFunc[T], opts ...Option) *ActionBlock[T] {
	options := applyOptions(opts)
	b := &ActionBlock[T]{
		baseBlock: newBaseBlock(options.Context),
		action:    action,
		options:   options,
	}
	b.in = newInbox[T](b.baseBlock, options.BufferSize)
	b.start("ActionBlock", options.ConcurrencyDegree, b.process, nil)
	return b
}

func (b *ActionBlock[T]) Post(msg T) bool {
	return b.in.send(context.Background(), msg) == nil
}

func (b *ActionBlock[T]) Send(ctx context.Context, msg T) error {
	return b.in.send(ctx, msg)
}

func (b *ActionBlock[T]) Complete() {
	b.in.complete()
}

func (b *ActionBlock[T]) process() {
	for {
		msg, ok := b.in.receive()
		if !ok {
			return
		}
		err := b.options.RetryPolicy.run(b.ctx, func() error {
			return b.action(b.ctx, msg)
		})
		if err != nil {
			b.Fault(fmt.Errorf("action: %w", err))
			return
		}
	}
}
