package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FallbackStore    = "Unknown Store"
	FallbackCategory = "General"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ID accepts both JSON strings and JSON numbers. The API is not consistent
// about which one it sends for deal and user identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type Deal struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	Image         string    `json:"image"`
	Store         string    `json:"store"`
	Category      string    `json:"category"`
	ExpiryDate    time.Time `json:"expiryDate"`
	Discount      int       `json:"discount"`
	BestPrice     *float64  `json:"bestPrice,omitempty"`
}

func (d Deal) IsExpired(now time.Time) bool {
	return !d.ExpiryDate.IsZero() && d.ExpiryDate.Before(now)
}

// AtBestPrice reports whether the current price matches or beats the best
// price ever recorded for this deal.
func (d Deal) AtBestPrice() bool {
	return d.BestPrice != nil && d.Price <= *d.BestPrice
}

// LowPriceAlert is raised on live deals that were cheaper at some point.
func (d Deal) LowPriceAlert(now time.Time) bool {
	return !d.IsExpired(now) && d.BestPrice != nil && d.Price > *d.BestPrice
}

// ComputeDiscount returns round((original - price) / original * 100), or 0
// when the deal is not actually discounted.
func ComputeDiscount(price, original decimal.Decimal) int {
	if !original.GreaterThan(price) || !original.IsPositive() {
		return 0
	}
	pct := original.Sub(price).Div(original).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

// RawDeal is the catalog wire shape. Prices come over as strings.
type RawDeal struct {
	ID            ID                  `json:"id"`
	Title         string              `json:"title"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.Decimal     `json:"originalPrice"`
	Image         string              `json:"image"`
	Store         string              `json:"store"`
	Category      string              `json:"category"`
	ExpiryDate    string              `json:"expiryDate"`
	Discount      decimal.NullDecimal `json:"discount"`
	BestPrice     decimal.NullDecimal `json:"bestPrice"`
}

func (raw RawDeal) Deal() Deal {
	deal := Deal{
		ID:            string(raw.ID),
		Title:         raw.Title,
		Price:         raw.Price.InexactFloat64(),
		OriginalPrice: raw.OriginalPrice.InexactFloat64(),
		Image:         raw.Image,
		Store:         strings.TrimSpace(raw.Store),
		Category:      strings.TrimSpace(raw.Category),
		ExpiryDate:    ParseExpiry(raw.ExpiryDate),
	}

	if raw.Discount.Valid {
		deal.Discount = int(raw.Discount.Decimal.Round(0).IntPart())
	} else {
		deal.Discount = ComputeDiscount(raw.Price, raw.OriginalPrice)
	}
	if raw.BestPrice.Valid {
		best := raw.BestPrice.Decimal.InexactFloat64()
		deal.BestPrice = &best
	}
	if deal.Store == "" {
		deal.Store = FallbackStore
	}
	if deal.Category == "" {
		deal.Category = FallbackCategory
	}
	return deal
}

// ParseTimestamp understands full timestamps, space-separated ones and bare
// dates. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ParseExpiry is ParseTimestamp for expiry dates; the zero time never counts
// as expired.
func ParseExpiry(s string) time.Time {
	return ParseTimestamp(s)
}
