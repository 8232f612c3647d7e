package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestQuery_Lifecycle(t *testing.T) {
	ctx := context.Background()
	calls := 0
	q := New(func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("boom")
		}
		return []string{"a"}, nil
	}, []string{})

	assert.Equal(t, Idle, q.Status())
	assert.Empty(t, q.Data())

	data, err := q.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, data)
	assert.Equal(t, Ready, q.Status())

	err = q.Invalidate(ctx)
	require.Error(t, err)
	assert.Equal(t, Failed, q.Status())
	assert.Equal(t, []string{"a"}, q.Data(), "failed refetch keeps the last good value")

	require.NoError(t, q.Invalidate(ctx))
	assert.Equal(t, Ready, q.Status())
	assert.NoError(t, q.Err())
}

func TestQuery_DisabledDoesNotFetch(t *testing.T) {
	var calls atomic.Int32
	q := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}, 0, Disabled())

	data, err := q.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, data)
	assert.Equal(t, int32(0), calls.Load())

	q.SetEnabled(true)
	data, err = q.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, data)

	q.SetEnabled(false)
	assert.Equal(t, 0, q.Data())
	assert.Equal(t, Idle, q.Status())
}

func TestQuery_ResetDropsInFlightResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	q := New(func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "stale", nil
	}, "")

	done := make(chan string)
	go func() {
		data, _ := q.Refetch(context.Background())
		done <- data
	}()

	<-started
	q.Reset()
	close(release)

	select {
	case data := <-done:
		assert.Equal(t, "", data)
	case <-time.After(time.Second):
		t.Fatal("refetch did not return")
	}
	assert.Equal(t, "", q.Data())
	assert.Equal(t, Idle, q.Status())
}

func TestQuery_Retries(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	q := New(func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transient
		}
		return 7, nil
	}, 0, WithRetries(2), withBackOff(instantBackOff))

	data, err := q.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, data)
	assert.Equal(t, 3, calls)
}

func TestQuery_RetryIfStopsOnPermanentErrors(t *testing.T) {
	fatal := errors.New("unauthorized")
	calls := 0
	q := New(func(ctx context.Context) (int, error) {
		calls++
		return 0, fatal
	}, 0,
		WithRetries(3),
		withBackOff(instantBackOff),
		WithRetryIf(func(err error) bool { return !errors.Is(err, fatal) }),
	)

	_, err := q.Refetch(context.Background())
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestQuery_Subscribe(t *testing.T) {
	value := 0
	q := New(func(ctx context.Context) (int, error) {
		value++
		return value, nil
	}, 0)

	var seen []int
	unsubscribe := q.Subscribe(func(v int) { seen = append(seen, v) })

	_, _ = q.Refetch(context.Background())
	q.Reset()
	unsubscribe()
	_, _ = q.Refetch(context.Background())

	assert.Equal(t, []int{1, 0}, seen)
}

func TestQuery_SetSupersedesFetch(t *testing.T) {
	release := make(chan struct{})
	q := New(func(ctx context.Context) (string, error) {
		<-release
		return "fetched", nil
	}, "")

	var seen []string
	q.Subscribe(func(v string) { seen = append(seen, v) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.Refetch(context.Background())
	}()
	require.Eventually(t, q.Loading, time.Second, time.Millisecond)

	q.Set("known")
	close(release)
	<-done

	assert.Equal(t, "known", q.Data())
	assert.Equal(t, Ready, q.Status())
	assert.Equal(t, "ready", q.Status().String())
	assert.Equal(t, []string{"known"}, seen)
}
