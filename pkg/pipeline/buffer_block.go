package pipeline

import "context"

// BufferBlock forwards every message to each linked target whose filter
// accepts it.
type BufferBlock[T any] struct {
	*baseBlock
	in    *inbox[T]
	links links[T]
}

// NewBufferBlock creates a new BufferBlock with the specified options
func NewBufferBlock[T any](opts ...Option) *BufferBlock[T] {
	options := applyOptions(opts)
	b := &BufferBlock[T]{baseBlock: newBaseBlock(options.Context)}
	b.in = newInbox[T](b.baseBlock, options.BufferSize)
	b.start("BufferBlock", options.ConcurrencyDegree, b.process, b.links.complete)
	return b
}

// Post delivers a message, waiting for buffer space. It returns false once
// the block is completed or faulted.
func (b *BufferBlock[T]) Post(msg T) bool {
	return b.in.send(context.Background(), msg) == nil
}

// Send is Post bounded by ctx.
func (b *BufferBlock[T]) Send(ctx context.Context, msg T) error {
	return b.in.send(ctx, msg)
}

// LinkTo links this block to a target block with an optional filter function
func (b *BufferBlock[T]) LinkTo(target Target[T], filter func(T) bool) {
	b.links.add(target, filter)
}

func (b *BufferBlock[T]) Complete() {
	b.in.complete()
}

func (b *BufferBlock[T]) process() {
	for {
		msg, ok := b.in.receive()
		if !ok {
			return
		}
		if err := b.links.offer(b.ctx, msg); err != nil {
			return
		}
	}
}
