package senders

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendNotice(ctx context.Context, notice *models.Notice) (string, error) {
	args := m.Called(ctx, notice)
	return args.String(0), args.Error(1)
}

func TestNewSenderRegistry_EmailOnlyWithCredentials(t *testing.T) {
	log := zaptest.NewLogger(t)
	cfg := &config.Config{}

	registry := NewSenderRegistry(fxtest.NewLifecycle(t), log, cfg, http.DefaultTransport, NewFeed())
	assert.Contains(t, registry, "feed")
	assert.Contains(t, registry, "log")
	assert.NotContains(t, registry, "email")

	cfg.Mailgun.Domain = "mg.example.com"
	cfg.Mailgun.APIKey = "key"
	registry = NewSenderRegistry(fxtest.NewLifecycle(t), log, cfg, http.DefaultTransport, NewFeed())
	assert.Contains(t, registry, "email")
}

func TestRegistry_BroadcastCollectsFailures(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed()
	failing := new(mockSender)
	notice := models.NewNotice(models.NoticeSuccess, "Added to wishlist", "")

	failing.On("SendNotice", ctx, notice).Return("", errors.New("unreachable"))

	registry := Registry{"feed": feed, "push": failing}
	err := registry.Broadcast(ctx, notice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push: unreachable")

	drained := feed.Drain()
	require.Len(t, drained, 1, "one failing channel does not stop the others")
	assert.Equal(t, "Added to wishlist", drained[0].Title)
	failing.AssertExpectations(t)
}

func TestFeed_DrainAndCapacity(t *testing.T) {
	ctx := context.Background()
	feed := &Feed{capacity: 2}

	for _, title := range []string{"a", "b", "c"} {
		_, err := feed.SendNotice(ctx, models.NewNotice(models.NoticeInfo, title, ""))
		require.NoError(t, err)
	}

	drained := feed.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "b", drained[0].Title)
	assert.Equal(t, "c", drained[1].Title)
	assert.Empty(t, feed.Drain())
}

func TestMailgunSender_SkipsOrdinaryNotices(t *testing.T) {
	sender := &mailgunSender{base{zaptest.NewLogger(t), &config.Config{}, http.DefaultTransport}}

	id, err := sender.SendNotice(context.Background(), models.NewNotice(models.NoticeSuccess, "Added to wishlist", ""))
	require.NoError(t, err)
	assert.Empty(t, id)

	drop := models.NewNotice(models.NoticeInfo, "Price drop", "")
	drop.Kind = models.KindPriceDrop
	id, err = sender.SendNotice(context.Background(), drop)
	require.NoError(t, err, "no recipient means nothing to send")
	assert.Empty(t, id)
}
