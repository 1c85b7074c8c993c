package pipeline

import (
	"context"
	"time"
)

// BlockOptions configures the behavior of pipeline blocks
type BlockOptions struct {
	// RetryPolicy defines the retry behavior for operations that can fail
	RetryPolicy *RetryPolicy

	// ConcurrencyDegree specifies the number of concurrent workers processing messages
	// Default is 1 (sequential processing)
	ConcurrencyDegree int

	// BufferSize specifies the capacity of the input channel
	BufferSize int

	// Context bounds the lifetime of the block. Cancelling it faults the block.
	Context context.Context
}

// RetryPolicy defines the retry policy for operations
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// Backoff is the wait before retry n, multiplied by n.
	Backoff time.Duration

	// BackoffFunc overrides Backoff when set. It receives the 1-based retry number.
	BackoffFunc func(retry int) time.Duration

	// Retryable reports whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// Option is a function that configures BlockOptions
type Option func(*BlockOptions)

// DefaultBlockOptions returns the default block options
func DefaultBlockOptions() BlockOptions {
	return BlockOptions{
		RetryPolicy:       nil,
		ConcurrencyDegree: 1,
		BufferSize:        0,
		Context:           context.Background(),
	}
}

// WithRetryPolicy configures a retry policy for the block
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *BlockOptions) {
		o.RetryPolicy = &policy
	}
}

// WithConcurrencyDegree sets the number of concurrent workers
func WithConcurrencyDegree(degree int) Option {
	return func(o *BlockOptions) {
		if degree > 0 {
			o.ConcurrencyDegree = degree
		}
	}
}

// WithBufferSize sets the buffer size for the input channel
func WithBufferSize(size int) Option {
	return func(o *BlockOptions) {
		if size > 0 {
			o.BufferSize = size
		}
	}
}

// WithContext ties the block to ctx.
func WithContext(ctx context.Context) Option {
	return func(o *BlockOptions) {
		if ctx != nil {
			o.Context = ctx
		}
	}
}

// applyOptions applies the given options to the default options
func applyOptions(opts []Option) BlockOptions {
	options := DefaultBlockOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// ConstantBackoff returns a backoff function that always returns the same duration.
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration {
		return d
	}
}

// ExponentialBackoff returns initial * 2^(retry-1).
func ExponentialBackoff(initial time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		if retry <= 1 {
			return initial
		}
		return initial * time.Duration(1<<(retry-1))
	}
}

func (p *RetryPolicy) wait(retry int) time.Duration {
	if p.BackoffFunc != nil {
		return p.BackoffFunc(retry)
	}
	return time.Duration(retry) * p.Backoff
}

// run calls fn until it succeeds, the retries are used up, the error is not
// retryable or ctx is done.
func (p *RetryPolicy) run(ctx context.Context, fn func() error) error {
	err := fn()
	if p == nil {
		return err
	}
	for retry := 1; err != nil && retry <= p.MaxRetries; retry++ {
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if d := p.wait(retry); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
		err = fn()
	}
	return err
}
