// Package pipeline provides dataflow blocks connected by channels: a
// BufferBlock fans messages out, a TransformBlock maps them and an
// ActionBlock consumes them. Completion propagates along links, and the first
// error faults a block and stops its workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Block is the completion side shared by every block.
type Block interface {
	// Complete stops accepting messages. Buffered messages are still processed.
	Complete()
	// Completion is closed once every worker has exited.
	Completion() <-chan struct{}
	// Err returns the fault that stopped the block, if any.
	Err() error
}

// Target is a block that accepts messages of type T.
type Target[T any] interface {
	Block
	Post(msg T) bool
	Send(ctx context.Context, msg T) error
}

// ErrCompleted is returned by Send after Complete or a fault.
var ErrCompleted = errors.New("pipeline: block completed")

type baseBlock struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	errMu sync.Mutex
	err   error
}

func newBaseBlock(parent context.Context) *baseBlock {
	ctx, cancel := context.WithCancel(parent)
	return &baseBlock{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Fault records the first error and stops the block.
func (b *baseBlock) Fault(err error) {
	b.errMu.Lock()
	if b.err == nil {
		b.err = err
	}
	b.errMu.Unlock()
	b.cancel()
}

func (b *baseBlock) Err() error {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.err
}

func (b *baseBlock) Completion() <-chan struct{} {
	return b.done
}

// start runs n copies of work and calls finish once they have all returned.
func (b *baseBlock) start(name string, n int, work func(), finish func()) {
	b.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.Fault(fmt.Errorf("panic in %s: %v", name, r))
				}
			}()
			work()
		}()
	}
	go func() {
		b.wg.Wait()
		if b.ctx.Err() != nil && b.Err() == nil {
			b.Fault(b.ctx.Err())
		}
		if finish != nil {
			finish()
		}
		b.cancel()
		close(b.done)
	}()
}

// inbox is the input channel of a block. Sends and close are serialized so a
// message is never sent on a closed channel.
type inbox[T any] struct {
	block  *baseBlock
	ch     chan T
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func newInbox[T any](b *baseBlock, size int) *inbox[T] {
	return &inbox[T]{block: b, ch: make(chan T, size)}
}

func (in *inbox[T]) send(ctx context.Context, msg T) error {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.closed {
		return ErrCompleted
	}
	select {
	case in.ch <- msg:
		return nil
	case <-in.block.ctx.Done():
		return ErrCompleted
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (in *inbox[T]) complete() {
	in.once.Do(func() {
		in.mu.Lock()
		in.closed = true
		close(in.ch)
		in.mu.Unlock()
	})
}

// receive returns the next message, or false once the inbox is drained or the
// block is stopped.
func (in *inbox[T]) receive() (T, bool) {
	select {
	case <-in.block.ctx.Done():
		var zero T
		return zero, false
	case msg, ok := <-in.ch:
		return msg, ok
	}
}

type link[T any] struct {
	target Target[T]
	filter func(T) bool
}

// links is the set of targets a source block forwards to.
type links[T any] struct {
	mu      sync.RWMutex
	targets []link[T]
}

func (l *links[T]) add(target Target[T], filter func(T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.targets = append(l.targets, link[T]{target: target, filter: filter})
}

// offer sends msg to every target whose filter accepts it.
func (l *links[T]) offer(ctx context.Context, msg T) error {
	l.mu.RLock()
	targets := make([]link[T], len(l.targets))
	copy(targets, l.targets)
	l.mu.RUnlock()

	for _, t := range targets {
		if t.filter != nil && !t.filter(msg) {
			continue
		}
		if err := t.target.Send(ctx, msg); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (l *links[T]) complete() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.targets {
		t.target.Complete()
	}
}

// WaitAll blocks until every block completes and joins their faults.
func WaitAll(blocks ...Block) error {
	var errs []error
	for _, b := range blocks {
		<-b.Completion()
		if err := b.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
