package poller

import (
	"context"
	"sync"
	"time"
)

type Event interface {
	Timestamp() time.Time
}

type event struct{ timestamp time.Time }

func (e event) Timestamp() time.Time { return e.timestamp }

type pollWakeupEvent struct {
	event
}

// nudgeWakeupEvent is an out-of-schedule poll, e.g. right after sign-in.
type nudgeWakeupEvent struct {
	event
}

type alarmClock struct {
	interval time.Duration
	nudgeC   chan struct{}
	C        chan Event

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

func NewAlarmClock(interval time.Duration) *alarmClock {
	return &alarmClock{
		interval: interval,
		nudgeC:   make(chan struct{}, 1),
		C:        make(chan Event),
	}
}

// Start fires one wakeup immediately and then one per interval until ctx is
// cancelled or Stop is called. C is closed when the clock stops.
func (a *alarmClock) Start(ctx context.Context) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.done = make(chan struct{})
	a.mu.Unlock()

	go func() {
		defer close(a.done)
		defer close(a.C)

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		if !a.emit(ctx, pollWakeupEvent{event{time.Now()}}) {
			return
		}
		for {
			var evt Event
			select {
			case t := <-ticker.C:
				evt = pollWakeupEvent{event{t}}
			case <-a.nudgeC:
				evt = nudgeWakeupEvent{event{time.Now()}}
			case <-ctx.Done():
				return
			}
			if !a.emit(ctx, evt) {
				return
			}
		}
	}()

	return a.C
}

func (a *alarmClock) emit(ctx context.Context, evt Event) bool {
	select {
	case a.C <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}

// Nudge requests an extra wakeup. Nudges coalesce while one is pending.
func (a *alarmClock) Nudge() {
	select {
	case a.nudgeC <- struct{}{}:
	default:
	}
}

// Stop cancels the clock and waits for its goroutine, and with it the
// ticker, to be gone.
func (a *alarmClock) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
