package pipeline

import (
	"context"
	"fmt"
)

// TransformFunc maps an input message to an output message.
type TransformFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// TransformBlock applies a transform to every message and forwards the
// result to its linked targets. A failed transform, after retries, faults the
// block.
type TransformBlock[In, Out any] struct {
	*baseBlock
	in        *inbox[In]
	transform TransformFunc[In, Out]
	links     links[Out]
	options   BlockOptions
}

// NewTransformBlock creates a new TransformBlock with the specified transform function and options
// Default behavior: no retry, sequential processing (1 worker)
func NewTransformBlock[In, Out any](transform TransformFunc[In, Out], opts ...Option) *TransformBlock[In, Out] {
	options := applyOptions(opts)
	b := &TransformBlock[In, Out]{
		baseBlock: newBaseBlock(options.Context),
		transform: transform,
		options:   options,
	}
	b.in = newInbox[In](b.baseBlock, options.BufferSize)
	b.start("TransformBlock", options.ConcurrencyDegree, b.process, b.links.complete)
	return b
}

func (b *TransformBlock[In, Out]) Post(msg In) bool {
	return b.in.send(context.Background(), msg) == nil
}

func (b *TransformBlock[In, Out]) Send(ctx context.Context, msg In) error {
	return b.in.send(ctx, msg)
}

// LinkTo links this block to a target block with an optional filter function
func (b *TransformBlock[In, Out]) LinkTo(target Target[Out], filter func(Out) bool) {
	b.links.add(target, filter)
}

func (b *TransformBlock[In, Out]) Complete() {
	b.in.complete()
}

func (b *TransformBlock[In, Out]) process() {
	for {
		msg, ok := b.in.receive()
		if !ok {
			return
		}

		var result Out
		err := b.options.RetryPolicy.run(b.ctx, func() error {
			var err error
			result, err = b.transform(b.ctx, msg)
			return err
		})
		if err != nil {
			b.Fault(fmt.Errorf("transform: %w", err))
			return
		}
		if err := b.links.offer(b.ctx, result); err != nil {
			return
		}
	}
}
