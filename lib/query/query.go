// Package query holds fetch-backed cached values. A Query moves
// idle -> loading -> ready|failed, and an invalidation sends it back to
// loading to refetch. Responses of superseded fetches are dropped.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

type Option func(*options)

type options struct {
	retries    uint
	retryIf    func(error) bool
	newBackOff func() backoff.BackOff
	disabled   bool
}

// WithRetries sets how many times a failed fetch is retried.
func WithRetries(n uint) Option {
	return func(o *options) { o.retries = n }
}

// WithRetryIf limits retries to errors for which fn returns true.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

func withBackOff(fn func() backoff.BackOff) Option {
	return func(o *options) { o.newBackOff = fn }
}

// Disabled creates the query in a gated state; Refetch is a no-op until
// SetEnabled(true).
func Disabled() Option {
	return func(o *options) { o.disabled = true }
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

type Query[T any] struct {
	mu    sync.Mutex
	fetch FetchFunc[T]
	opts  options
	empty T

	enabled bool
	status  Status
	data    T
	err     error
	gen     uint64
	subs    map[int]func(T)
	nextSub int
}

// New creates a query. empty is what readers see before the first
// successful fetch and after a reset.
func New[T any](fetch FetchFunc[T], empty T, opts ...Option) *Query[T] {
	o := options{newBackOff: defaultBackOff}
	for _, opt := range opts {
		opt(&o)
	}
	return &Query[T]{
		fetch:   fetch,
		opts:    o,
		empty:   empty,
		data:    empty,
		enabled: !o.disabled,
		subs:    make(map[int]func(T)),
	}
}

func (q *Query[T]) Data() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data
}

func (q *Query[T]) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *Query[T]) Loading() bool {
	return q.Status() == Loading
}

func (q *Query[T]) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// SetEnabled gates the query. Disabling also resets it, so readers see the
// empty value right away and any fetch still in flight is discarded.
func (q *Query[T]) SetEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	q.mu.Unlock()

	if !enabled {
		q.Reset()
	}
}

// Reset returns the query to idle with the empty value.
func (q *Query[T]) Reset() {
	q.mu.Lock()
	q.gen++
	q.status = Idle
	q.data = q.empty
	q.err = nil
	subs := q.subscribers()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(q.empty)
	}
}

// Refetch loads fresh data. On a disabled query it returns the current value
// without calling the fetch function. If the query is reset or refetched
// again while this fetch is in flight, the result is not committed.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	if !q.enabled {
		data := q.data
		q.mu.Unlock()
		return data, nil
	}
	q.gen++
	gen := q.gen
	q.status = Loading
	q.mu.Unlock()

	data, err := q.fetchWithRetry(ctx)

	q.mu.Lock()
	if gen != q.gen {
		current := q.data
		q.mu.Unlock()
		return current, nil
	}
	if err != nil {
		q.status = Failed
		q.err = err
		current := q.data
		q.mu.Unlock()
		return current, err
	}
	q.status = Ready
	q.data = data
	q.err = nil
	subs := q.subscribers()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(data)
	}
	return data, nil
}

// Set commits data as the current value, superseding any fetch in flight.
// It is for state the caller already knows the server holds.
func (q *Query[T]) Set(data T) {
	q.mu.Lock()
	q.gen++
	q.status = Ready
	q.data = data
	q.err = nil
	subs := q.subscribers()
	q.mu.Unlock()

	for _, fn := range subs {
		fn(data)
	}
}

// Invalidate marks the cached value stale and refetches it.
func (q *Query[T]) Invalidate(ctx context.Context) error {
	_, err := q.Refetch(ctx)
	return err
}

// Subscribe registers fn to be called with every committed value. The
// returned func unregisters it.
func (q *Query[T]) Subscribe(fn func(T)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.subs, id)
	}
}

func (q *Query[T]) subscribers() []func(T) {
	subs := make([]func(T), 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (q *Query[T]) fetchWithRetry(ctx context.Context) (T, error) {
	if q.opts.retries == 0 {
		return q.fetch(ctx)
	}

	op := func() (T, error) {
		data, err := q.fetch(ctx)
		if err != nil && q.opts.retryIf != nil && !q.opts.retryIf(err) {
			return data, backoff.Permanent(err)
		}
		return data, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(q.opts.newBackOff()),
		backoff.WithMaxTries(q.opts.retries+1),
	)
}
