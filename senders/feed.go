package senders

import (
	"context"
	"sync"

	"github.com/fiffu/buzdealz/lib/models"
)

const defaultFeedCapacity = 50

// Feed buffers notices until a UI drains them. When full, the oldest notice
// is dropped.
type Feed struct {
	mu       sync.Mutex
	capacity int
	pending  []models.Notice
}

func NewFeed() *Feed {
	return &Feed{capacity: defaultFeedCapacity}
}

func (f *Feed) SendNotice(ctx context.Context, notice *models.Notice) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.capacity > 0 && len(f.pending) >= f.capacity {
		f.pending = f.pending[1:]
	}
	f.pending = append(f.pending, *notice)
	return notice.ID, nil
}

// Drain returns pending notices in arrival order and empties the feed.
func (f *Feed) Drain() []models.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending
	f.pending = nil
	if out == nil {
		out = []models.Notice{}
	}
	return out
}
