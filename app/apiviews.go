package app

import (
	"time"

	"github.com/fiffu/buzdealz/lib/models"
)

type DealView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Discount      int      `json:"discount"`
	Image         string   `json:"image"`
	Store         string   `json:"store"`
	Category      string   `json:"category"`
	ExpiryDate    *string  `json:"expiryDate"`
	BestPrice     *float64 `json:"bestPrice,omitempty"`
	Expired       bool     `json:"expired"`
	AtBestPrice   bool     `json:"atBestPrice"`
	LowPriceAlert bool     `json:"lowPriceAlert"`
	InWishlist    bool     `json:"inWishlist"`
}

type WishlistItemView struct {
	DealView
	AddedAt      string `json:"addedAt"`
	AlertEnabled bool   `json:"alertEnabled"`
}

type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSubscriber bool   `json:"isSubscriber"`
}

type SessionView struct {
	Authenticated bool      `json:"authenticated"`
	IsSubscriber  bool      `json:"isSubscriber"`
	User          *UserView `json:"user"`
}

type NotificationView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func (view DealView) From(entity models.Deal) DealView {
	now := time.Now()
	return DealView{
		ID:            entity.ID,
		Title:         entity.Title,
		Price:         entity.Price,
		OriginalPrice: entity.OriginalPrice,
		Discount:      entity.Discount,
		Image:         entity.Image,
		Store:         entity.Store,
		Category:      entity.Category,
		ExpiryDate:    isoformat(entity.ExpiryDate),
		BestPrice:     entity.BestPrice,
		Expired:       entity.IsExpired(now),
		AtBestPrice:   entity.AtBestPrice(),
		LowPriceAlert: entity.LowPriceAlert(now),
	}
}

func (view WishlistItemView) From(entity models.WishlistItem) WishlistItemView {
	deal := DealView{}.From(entity.Deal)
	deal.InWishlist = true
	return WishlistItemView{
		DealView:     deal,
		AddedAt:      entity.AddedAt.UTC().Format(time.RFC3339),
		AlertEnabled: entity.AlertEnabled,
	}
}

func (view NotificationView) From(entity models.Notification) NotificationView {
	return NotificationView{
		ID:        string(entity.ID),
		Title:     entity.Title,
		Message:   entity.Message,
		Read:      entity.Read,
		CreatedAt: entity.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (view SessionView) From(entity *models.User) SessionView {
	if entity == nil {
		return SessionView{}
	}
	return SessionView{
		Authenticated: true,
		IsSubscriber:  entity.IsSubscriber,
		User: &UserView{
			ID:           string(entity.ID),
			Email:        entity.Email,
			Name:         entity.Name,
			IsSubscriber: entity.IsSubscriber,
		},
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
