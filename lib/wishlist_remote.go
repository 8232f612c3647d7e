package lib

import (
	"context"

	"github.com/fiffu/buzdealz/lib/models"
)

type WishlistAPI interface {
	Wishlist(ctx context.Context) ([]models.WishlistItem, error)
	AddToWishlist(ctx context.Context, dealID string, alertEnabled bool) error
	RemoveFromWishlist(ctx context.Context, dealID string) error
	SetAlert(ctx context.Context, dealID string, enabled bool) error
}

type remoteWishlist struct {
	client WishlistAPI
}

// NewRemoteWishlist keeps the wishlist on the backend, scoped to the session.
func NewRemoteWishlist(client WishlistAPI) WishlistBackend {
	return &remoteWishlist{client}
}

func (r *remoteWishlist) List(ctx context.Context) ([]models.WishlistItem, error) {
	return r.client.Wishlist(ctx)
}

func (r *remoteWishlist) Add(ctx context.Context, deal models.Deal, alertEnabled bool) error {
	return r.client.AddToWishlist(ctx, deal.ID, alertEnabled)
}

func (r *remoteWishlist) Remove(ctx context.Context, dealID string) error {
	return r.client.RemoveFromWishlist(ctx, dealID)
}

func (r *remoteWishlist) SetAlert(ctx context.Context, dealID string, enabled bool) error {
	return r.client.SetAlert(ctx, dealID, enabled)
}

func (r *remoteWishlist) RequiresSession() bool { return true }
