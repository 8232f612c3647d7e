package models

import (
	"time"

	"github.com/google/uuid"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
	NoticeUpsell  NoticeLevel = "upsell"
)

const KindPriceDrop = "price_drop"

// Notice is a transient, dismissable message for whoever is looking at the
// storefront right now.
type Notice struct {
	ID          string      `json:"id"`
	Level       NoticeLevel `json:"level"`
	Kind        string      `json:"kind,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Recipient   string      `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func NewNotice(level NoticeLevel, title, description string) *Notice {
	return &Notice{
		ID:          uuid.NewString(),
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
