package lib

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/poller"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*Service, *mockAPI) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{NotificationPollInterval: time.Hour}
	log := zaptest.NewLogger(t)
	client := new(mockAPI)
	registry, _ := newRegistry()

	session := NewSession(log, client, registry)
	wishlist := NewWishlist(log, session, NewRemoteWishlist(client), registry)
	catalog := NewCatalog(log, client, registry)
	notifications := poller.NewPoller(lc, cfg, log, newTestDB(t), client, session, registry)
	return NewService(lc, cfg, log, session, wishlist, catalog, notifications), client
}

func TestService_LogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	client.On("Me", ctx).Return(bob, nil)
	client.On("Deals", ctx).Return([]models.Deal{dyson, lego}, nil)
	client.On("Wishlist", ctx).Return([]models.WishlistItem{{Deal: dyson}}, nil)
	client.On("Notifications", mock.Anything).Return([]models.Notification{{ID: "n1", Title: "Price drop"}}, nil)
	client.On("Logout", ctx).Return(nil)

	svc.Load(ctx)
	_, err := svc.Notifications.Poll(ctx)
	require.NoError(t, err)

	require.True(t, svc.Session.IsAuthenticated())
	require.Len(t, svc.Wishlist.Items(), 1)
	require.Equal(t, 1, svc.Notifications.UnreadCount())

	require.NoError(t, svc.Session.Logout(ctx))
	assert.Nil(t, svc.Session.User())
	assert.Empty(t, svc.Wishlist.Items())
	assert.Empty(t, svc.Notifications.Notifications())
	assert.Zero(t, svc.Notifications.UnreadCount())
	assert.Len(t, svc.Catalog.Deals(), 2, "the catalog is public")
}

func TestService_DealDetailAndAddDeal(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	client.On("Me", ctx).Return(alice, nil)
	client.On("Deals", ctx).Return([]models.Deal{dyson}, nil)
	client.On("Wishlist", ctx).Return([]models.WishlistItem{}, nil).Twice()
	svc.Load(ctx)

	deal, saved, err := svc.DealDetail(dyson.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dyson V15", deal.Title)
	assert.False(t, saved)

	_, _, err = svc.DealDetail("missing")
	assert.ErrorIs(t, err, models.ErrDealNotFound)

	client.On("AddToWishlist", ctx, dyson.ID, false).Return(nil)
	client.On("Wishlist", ctx).Return([]models.WishlistItem{{Deal: dyson}}, nil)
	require.NoError(t, svc.AddDeal(ctx, dyson.ID))

	_, saved, err = svc.DealDetail(dyson.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	assert.ErrorIs(t, svc.AddDeal(ctx, "missing"), models.ErrDealNotFound)
}

func TestCatalog_RefreshFailureKeepsDeals(t *testing.T) {
	ctx := context.Background()
	client := new(mockAPI)
	registry, feed := newRegistry()
	catalog := NewCatalog(zaptest.NewLogger(t), client, registry)

	client.On("Deals", ctx).Return([]models.Deal{dyson}, nil).Once()
	client.On("Deals", ctx).Return(nil, errors.New("down")).Once()

	require.NoError(t, catalog.Refresh(ctx))
	require.Error(t, catalog.Refresh(ctx))

	assert.Len(t, catalog.Deals(), 1)
	assert.Error(t, catalog.Err())
	assert.Equal(t, []string{"Failed to load deals"}, titles(feed))

	d, ok := catalog.Find(dyson.ID)
	require.True(t, ok)
	assert.Equal(t, 10, d.Discount)
}

func TestCatalog_RefreshFailureUsesServerMessage(t *testing.T) {
	ctx := context.Background()
	client := new(mockAPI)
	registry, feed := newRegistry()
	catalog := NewCatalog(zaptest.NewLogger(t), client, registry)

	client.On("Deals", ctx).Return(nil, &api.Error{Status: http.StatusServiceUnavailable, Message: "Deals are being updated"}).Once()

	require.Error(t, catalog.Refresh(ctx))
	assert.Equal(t, query.Failed, catalog.Status())
	assert.Equal(t, []string{"Deals are being updated"}, titles(feed))
}
