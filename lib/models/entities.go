package models

import (
	"encoding/json"
	"time"
)

type WishlistItem struct {
	Deal
	AddedAt      time.Time `json:"addedAt"`
	AlertEnabled bool      `json:"alertEnabled"`
}

type WishlistItems []WishlistItem

// Find is a linear scan; wishlists are small.
func (items WishlistItems) Find(dealID string) (WishlistItem, bool) {
	for _, item := range items {
		if item.ID == dealID {
			return item, true
		}
	}
	return WishlistItem{}, false
}

type RawWishlistEntry struct {
	Deal         RawDeal   `json:"deal"`
	CreatedAt    time.Time `json:"createdAt"`
	AlertEnabled bool      `json:"alertEnabled"`
}

// UnmarshalJSON accepts any timestamp layout ParseTimestamp knows, so one
// odd createdAt does not fail the whole wishlist.
func (raw *RawWishlistEntry) UnmarshalJSON(b []byte) error {
	var wire struct {
		Deal         RawDeal `json:"deal"`
		CreatedAt    string  `json:"createdAt"`
		AlertEnabled bool    `json:"alertEnabled"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*raw = RawWishlistEntry{
		Deal:         wire.Deal,
		CreatedAt:    ParseTimestamp(wire.CreatedAt),
		AlertEnabled: wire.AlertEnabled,
	}
	return nil
}

func (raw RawWishlistEntry) Item() WishlistItem {
	return WishlistItem{
		Deal:         raw.Deal.Deal(),
		AddedAt:      raw.CreatedAt,
		AlertEnabled: raw.AlertEnabled,
	}
}

type User struct {
	ID           ID     `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSubscriber bool   `json:"isSubscriber"`
}

type Notification struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON reads the flag from isRead, falling back to read, and
// accepts any timestamp layout ParseTimestamp knows.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var wire struct {
		ID        ID     `json:"id"`
		Title     string `json:"title"`
		Message   string `json:"message"`
		IsRead    *bool  `json:"isRead"`
		Read      *bool  `json:"read"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*n = Notification{
		ID:        wire.ID,
		Title:     wire.Title,
		Message:   wire.Message,
		CreatedAt: ParseTimestamp(wire.CreatedAt),
	}
	switch {
	case wire.IsRead != nil:
		n.Read = *wire.IsRead
	case wire.Read != nil:
		n.Read = *wire.Read
	}
	return nil
}

type Notifications []Notification

func (ns Notifications) UnreadCount() int {
	count := 0
	for _, n := range ns {
		if !n.Read {
			count++
		}
	}
	return count
}
