package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiscount(t *testing.T) {
	cases := []struct {
		price, original string
		want            int
	}{
		{"449.99", "499.99", 10},
		{"348.00", "399.99", 13},
		{"1099.00", "1299.00", 15},
		{"50", "100", 50},
		{"99.5", "100", 1}, // 0.5 rounds up
		{"100", "100", 0},  // no discount
		{"120", "100", 0},  // marked up
		{"0", "0", 0},      // no original price
		{"10", "-5", 0},    // nonsense input
	}
	for _, c := range cases {
		got := ComputeDiscount(decimal.RequireFromString(c.price), decimal.RequireFromString(c.original))
		assert.Equal(t, c.want, got, "price=%s original=%s", c.price, c.original)
	}
}

func TestRawDeal_StringPricesAndDerivedFields(t *testing.T) {
	body := `{"id":5,"title":"Switch OLED","price":"449.99","originalPrice":"499.99","image":"x.jpg","expiryDate":"2026-01-25"}`

	var raw RawDeal
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	deal := raw.Deal()

	assert.Equal(t, "5", deal.ID)
	assert.InDelta(t, 449.99, deal.Price, 1e-9)
	assert.InDelta(t, 499.99, deal.OriginalPrice, 1e-9)
	assert.Equal(t, 10, deal.Discount)
	assert.Equal(t, FallbackStore, deal.Store)
	assert.Equal(t, FallbackCategory, deal.Category)
	assert.Nil(t, deal.BestPrice)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), deal.ExpiryDate)
}

func TestRawDeal_SuppliedDiscountWins(t *testing.T) {
	body := `{"id":"1","title":"Headphones","price":348,"originalPrice":"399.99","store":"Amazon","category":"Electronics","discount":20,"bestPrice":"299.00"}`

	var raw RawDeal
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	deal := raw.Deal()

	assert.Equal(t, 20, deal.Discount)
	assert.Equal(t, "Amazon", deal.Store)
	assert.Equal(t, "Electronics", deal.Category)
	require.NotNil(t, deal.BestPrice)
	assert.InDelta(t, 299.0, *deal.BestPrice, 1e-9)
}

func TestDeal_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 26, 12, 0, 0, 0, time.UTC)

	assert.True(t, Deal{ExpiryDate: ParseExpiry("2026-01-25")}.IsExpired(now))
	assert.False(t, Deal{ExpiryDate: ParseExpiry("2026-02-01T00:00:00Z")}.IsExpired(now))
	assert.False(t, Deal{ExpiryDate: ParseExpiry("soon")}.IsExpired(now))
}

func TestDeal_BestPriceVerdicts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	best := 299.0
	live := now.Add(24 * time.Hour)

	above := Deal{Price: 348, BestPrice: &best, ExpiryDate: live}
	assert.True(t, above.LowPriceAlert(now))
	assert.False(t, above.AtBestPrice())

	at := Deal{Price: 299, BestPrice: &best, ExpiryDate: live}
	assert.False(t, at.LowPriceAlert(now))
	assert.True(t, at.AtBestPrice())

	expired := Deal{Price: 348, BestPrice: &best, ExpiryDate: now.Add(-time.Hour)}
	assert.False(t, expired.LowPriceAlert(now))
}

func TestNotifications_UnreadCount(t *testing.T) {
	ns := Notifications{{ID: "1", Read: true}, {ID: "2"}, {ID: "3"}}
	assert.Equal(t, 2, ns.UnreadCount())
	assert.Equal(t, 0, Notifications{}.UnreadCount())
}
