package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fiffu/buzdealz/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LocalWishlistKey is the key under which the device-local wishlist is kept
// as one JSON array.
const LocalWishlistKey = "buzdealz-wishlist"

type localWishlist struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time

	mu    sync.Mutex
	items []models.WishlistItem
}

// NewLocalWishlist keeps the wishlist on this device. It is rehydrated here
// and written back after every mutation.
func NewLocalWishlist(db *gorm.DB, log *zap.Logger) (WishlistBackend, error) {
	l := &localWishlist{db: db, log: log, now: time.Now}
	if err := l.load(); err != nil {
		return nil, err
	}
	log.Sugar().Infof("Loaded %d wishlist items from local storage", len(l.items))
	return l, nil
}

func (l *localWishlist) load() error {
	var row models.KeyValue
	tx := l.db.Where("key = ?", LocalWishlistKey).First(&row)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		l.items = []models.WishlistItem{}
		return nil
	} else if err != nil {
		return err
	}

	var items []models.WishlistItem
	if err := json.Unmarshal([]byte(row.Value), &items); err != nil {
		// A corrupt blob should not brick the client; start over.
		l.log.Sugar().Warnw("Discarding unreadable local wishlist", "err", err)
		items = []models.WishlistItem{}
	}
	l.items = items
	return nil
}

// persist writes items and only then makes them current, so a failed write
// leaves the in-memory list untouched.
func (l *localWishlist) persist(items []models.WishlistItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	row := models.KeyValue{Key: LocalWishlistKey, Value: string(b), UpdatedAt: l.now().UTC()}
	if err := l.db.Save(&row).Error; err != nil {
		return fmt.Errorf("save local wishlist: %w", err)
	}
	l.items = items
	return nil
}

func (l *localWishlist) List(ctx context.Context) ([]models.WishlistItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.WishlistItem{}, l.items...), nil
}

func (l *localWishlist) Add(ctx context.Context, deal models.Deal, alertEnabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := models.WishlistItems(l.items).Find(deal.ID); ok {
		return nil
	}
	item := models.WishlistItem{Deal: deal, AddedAt: l.now().UTC(), AlertEnabled: alertEnabled}
	return l.persist(append(append([]models.WishlistItem{}, l.items...), item))
}

func (l *localWishlist) Remove(ctx context.Context, dealID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]models.WishlistItem, 0, len(l.items))
	for _, item := range l.items {
		if item.ID != dealID {
			kept = append(kept, item)
		}
	}
	return l.persist(kept)
}

func (l *localWishlist) SetAlert(ctx context.Context, dealID string, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := append([]models.WishlistItem{}, l.items...)
	for i := range items {
		if items[i].ID == dealID {
			items[i].AlertEnabled = enabled
			return l.persist(items)
		}
	}
	return models.ErrNotInWishlist
}

func (l *localWishlist) RequiresSession() bool { return false }
