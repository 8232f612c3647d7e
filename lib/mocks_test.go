package lib

import (
	"context"
	"fmt"
	"testing"

	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/senders"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAPI) Login(ctx context.Context, creds api.Credentials) (*api.Ack, error) {
	args := m.Called(ctx, creds)
	ack, _ := args.Get(0).(*api.Ack)
	return ack, args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, creds api.Credentials) (*api.Ack, error) {
	args := m.Called(ctx, creds)
	ack, _ := args.Get(0).(*api.Ack)
	return ack, args.Error(1)
}

func (m *mockAPI) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAPI) Deals(ctx context.Context) ([]models.Deal, error) {
	args := m.Called(ctx)
	deals, _ := args.Get(0).([]models.Deal)
	return deals, args.Error(1)
}

func (m *mockAPI) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.WishlistItem)
	return items, args.Error(1)
}

func (m *mockAPI) AddToWishlist(ctx context.Context, dealID string, alertEnabled bool) error {
	return m.Called(ctx, dealID, alertEnabled).Error(0)
}

func (m *mockAPI) RemoveFromWishlist(ctx context.Context, dealID string) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockAPI) SetAlert(ctx context.Context, dealID string, enabled bool) error {
	return m.Called(ctx, dealID, enabled).Error(0)
}

func (m *mockAPI) Notifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	ns, _ := args.Get(0).([]models.Notification)
	return ns, args.Error(1)
}

func (m *mockAPI) MarkNotificationsRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newRegistry() (senders.Registry, *senders.Feed) {
	feed := senders.NewFeed()
	return senders.Registry{"feed": feed}, feed
}

func titles(feed *senders.Feed) []string {
	var out []string
	for _, n := range feed.Drain() {
		out = append(out, n.Title)
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.KeyValue{}, &models.SeenNotification{}))
	return db
}

var (
	alice = &models.User{ID: "1", Email: "alice@example.com", Name: "Alice"}
	bob   = &models.User{ID: "2", Email: "bob@example.com", Name: "Bob", IsSubscriber: true}

	dyson = models.Deal{ID: "d1", Title: "Dyson V15", Price: 449.99, OriginalPrice: 499.99, Discount: 10, Store: "Amazon", Category: "Home"}
	lego  = models.Deal{ID: "d2", Title: "LEGO Falcon", Price: 600, OriginalPrice: 850, Discount: 29, Store: "Target", Category: "Toys"}
)
