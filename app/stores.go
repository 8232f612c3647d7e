package app

import (
	"net/http"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib"
	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/poller"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewAPIClient(cfg *config.Config, client *http.Client, log *zap.Logger) *api.Client {
	return api.NewClient(cfg.API.BaseURL, client, log)
}

// readOptions applies to every query. Mutations never go through a query,
// so they are never retried.
func readOptions(cfg *config.Config) []query.Option {
	return []query.Option{
		query.WithRetries(cfg.API.ReadRetries),
		query.WithRetryIf(api.Retryable),
	}
}

func NewSession(cfg *config.Config, log *zap.Logger, client *api.Client, registry senders.Registry) *lib.Session {
	return lib.NewSession(log, client, registry, readOptions(cfg)...)
}

func NewWishlistBackend(cfg *config.Config, log *zap.Logger, db *gorm.DB, client *api.Client) (lib.WishlistBackend, error) {
	if cfg.LocalWishlist() {
		log.Info("Wishlist is stored locally")
		return lib.NewLocalWishlist(db, log)
	}
	return lib.NewRemoteWishlist(client), nil
}

func NewWishlist(cfg *config.Config, log *zap.Logger, session *lib.Session, backend lib.WishlistBackend, registry senders.Registry) *lib.Wishlist {
	return lib.NewWishlist(log, session, backend, registry, readOptions(cfg)...)
}

func NewCatalog(cfg *config.Config, log *zap.Logger, client *api.Client, registry senders.Registry) *lib.Catalog {
	return lib.NewCatalog(log, client, registry, readOptions(cfg)...)
}

func NewPoller(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, client *api.Client, session *lib.Session, registry senders.Registry) *poller.Poller {
	return poller.NewPoller(lc, cfg, log, db, client, session, registry, readOptions(cfg)...)
}

// Module provides everything the storefront needs except config and logger.
var Module = fx.Options(
	fx.Provide(senders.NewFeed),
	fx.Provide(senders.NewSenderRegistry),

	fx.Provide(NewDatabase),
	fx.Provide(NewTransport),
	fx.Provide(NewHTTPClient),
	fx.Provide(NewAPIClient),

	fx.Provide(NewSession),
	fx.Provide(NewWishlistBackend),
	fx.Provide(NewWishlist),
	fx.Provide(NewCatalog),
	fx.Provide(NewPoller),
	fx.Provide(lib.NewService),
)
