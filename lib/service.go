package lib

import (
	"context"
	"fmt"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/poller"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Service is the storefront state: who is signed in, what they saved, what
// they were told, and what is on sale.
type Service struct {
	cfg *config.Config
	log *zap.Logger

	Session       *Session
	Wishlist      *Wishlist
	Catalog       *Catalog
	Notifications *poller.Poller
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, session *Session, wishlist *Wishlist, catalog *Catalog, notifications *poller.Poller) *Service {
	svc := &Service{cfg, log, session, wishlist, catalog, notifications}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			svc.Load(ctx)
			return nil
		},
	})
	return svc
}

// Load settles the session and fills the stores. The backend being down is
// not fatal; the stores stay empty and later refreshes catch up.
func (svc *Service) Load(ctx context.Context) {
	if user := svc.Session.Refresh(ctx); user != nil {
		svc.log.Sugar().Infof("Signed in as %s", user.Email)
	}

	err := multierr.Combine(
		svc.Catalog.Refresh(ctx),
		svc.Wishlist.Refresh(ctx),
	)
	if err != nil {
		svc.log.Sugar().Warnw("Initial load incomplete", "err", err)
	}
}

// DealDetail returns a deal from the catalog and whether it is saved.
func (svc *Service) DealDetail(dealID string) (models.Deal, bool, error) {
	deal, ok := svc.Catalog.Find(dealID)
	if !ok {
		return models.Deal{}, false, fmt.Errorf("%w: %s", models.ErrDealNotFound, dealID)
	}
	return deal, svc.Wishlist.IsInWishlist(dealID), nil
}

// AddDeal saves a catalog deal to the wishlist by id. The catalog is
// reloaded once if the deal is not known yet.
func (svc *Service) AddDeal(ctx context.Context, dealID string) error {
	deal, ok := svc.Catalog.Find(dealID)
	if !ok {
		if err := svc.Catalog.Refresh(ctx); err != nil {
			return err
		}
		if deal, ok = svc.Catalog.Find(dealID); !ok {
			return fmt.Errorf("%w: %s", models.ErrDealNotFound, dealID)
		}
	}
	return svc.Wishlist.Add(ctx, deal)
}
