package lib

import (
	"context"

	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/zap"
)

// WishlistBackend is where wishlist entries live. Exactly one backend is
// active per process.
type WishlistBackend interface {
	List(ctx context.Context) ([]models.WishlistItem, error)
	Add(ctx context.Context, deal models.Deal, alertEnabled bool) error
	Remove(ctx context.Context, dealID string) error
	SetAlert(ctx context.Context, dealID string, enabled bool) error

	// RequiresSession reports whether the backend is scoped to the signed-in
	// user, in which case the wishlist is inert while signed out.
	RequiresSession() bool
}

// Wishlist is the user's saved deals. Mutations go to the backend first and
// the cached list only changes through the refetch that follows.
type Wishlist struct {
	log     *zap.Logger
	session *Session
	backend WishlistBackend
	notices notifier
	items   *query.Query[[]models.WishlistItem]
}

func NewWishlist(log *zap.Logger, session *Session, backend WishlistBackend, registry senders.Registry, opts ...query.Option) *Wishlist {
	w := &Wishlist{
		log:     log,
		session: session,
		backend: backend,
		notices: notifier{log, registry},
	}

	if backend.RequiresSession() {
		opts = append(opts, query.Disabled())
		session.OnChange(w.onSessionChange)
	}
	w.items = query.New[[]models.WishlistItem](backend.List, []models.WishlistItem{}, opts...)
	return w
}

func (w *Wishlist) onSessionChange(ctx context.Context, authenticated bool) {
	w.items.SetEnabled(authenticated)
	if !authenticated {
		return
	}
	if _, err := w.items.Refetch(ctx); err != nil {
		w.log.Sugar().Warnw("Failed to load wishlist", "err", err)
	}
}

// Refresh reloads the wishlist. It is a no-op while the wishlist is gated.
func (w *Wishlist) Refresh(ctx context.Context) error {
	_, err := w.items.Refetch(ctx)
	return err
}

func (w *Wishlist) Items() models.WishlistItems {
	items := w.items.Data()
	return append(models.WishlistItems{}, items...)
}

func (w *Wishlist) Loading() bool {
	return w.items.Loading()
}

func (w *Wishlist) IsInWishlist(dealID string) bool {
	_, ok := w.Items().Find(dealID)
	return ok
}

func (w *Wishlist) Add(ctx context.Context, deal models.Deal) error {
	if err := w.requireSession(ctx); err != nil {
		return err
	}

	if err := w.backend.Add(ctx, deal, false); err != nil {
		w.notices.failure(ctx, api.Message(err, "Failed to add to wishlist"))
		return err
	}

	w.log.Sugar().Infow("Analytics", "event", "added_to_wishlist", "deal_id", deal.ID)
	w.notices.success(ctx, "Added to wishlist")
	w.invalidate(ctx)
	return nil
}

// Remove always asks the backend, which decides whether the deal was there.
func (w *Wishlist) Remove(ctx context.Context, dealID string) error {
	if err := w.requireSession(ctx); err != nil {
		return err
	}

	if err := w.backend.Remove(ctx, dealID); err != nil {
		w.notices.failure(ctx, api.Message(err, "Failed to remove from wishlist"))
		return err
	}

	w.log.Sugar().Infow("Analytics", "event", "removed_from_wishlist", "deal_id", dealID)
	w.notices.success(ctx, "Removed from wishlist")
	w.invalidate(ctx)
	return nil
}

// ToggleAlert flips the price alert of a saved deal. Only subscribers may
// use alerts; everyone else is stopped before any request goes out.
func (w *Wishlist) ToggleAlert(ctx context.Context, dealID string) error {
	if err := w.requireSession(ctx); err != nil {
		return err
	}
	if !w.session.IsSubscriber() {
		w.notices.send(ctx, models.NoticeUpsell, "Only subscribers can enable price alerts!", "Upgrade to Pro to unlock this feature.")
		return models.ErrSubscriberOnly
	}

	item, ok := w.Items().Find(dealID)
	if !ok {
		return models.ErrNotInWishlist
	}

	if err := w.backend.SetAlert(ctx, dealID, !item.AlertEnabled); err != nil {
		w.notices.failure(ctx, api.Message(err, "Failed to update alert"))
		return err
	}

	w.notices.success(ctx, "Alert settings updated")
	w.invalidate(ctx)
	return nil
}

func (w *Wishlist) requireSession(ctx context.Context) error {
	if w.backend.RequiresSession() && !w.session.IsAuthenticated() {
		w.notices.send(ctx, models.NoticeError, "Please sign in to use your wishlist", "")
		return models.ErrAuthRequired
	}
	return nil
}

// invalidate refetches after a confirmed mutation. The mutation already
// succeeded, so a failed refetch is only logged; the next refresh catches up.
func (w *Wishlist) invalidate(ctx context.Context) {
	if err := w.items.Invalidate(ctx); err != nil {
		w.log.Sugar().Warnw("Failed to refresh wishlist", "err", err)
	}
}
