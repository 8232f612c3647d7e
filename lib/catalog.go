package lib

import (
	"context"

	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/zap"
)

type CatalogAPI interface {
	Deals(ctx context.Context) ([]models.Deal, error)
}

// Catalog is the public list of deals. It does not need a session.
type Catalog struct {
	log     *zap.Logger
	notices notifier
	deals   *query.Query[[]models.Deal]
}

func NewCatalog(log *zap.Logger, client CatalogAPI, registry senders.Registry, opts ...query.Option) *Catalog {
	return &Catalog{
		log:     log,
		notices: notifier{log, registry},
		deals:   query.New[[]models.Deal](client.Deals, []models.Deal{}, opts...),
	}
}

// Refresh reloads the catalog. On failure the previous deals stay visible.
func (c *Catalog) Refresh(ctx context.Context) error {
	deals, err := c.deals.Refetch(ctx)
	if err != nil {
		c.notices.failure(ctx, api.Message(err, "Failed to load deals"))
		return err
	}
	c.log.Sugar().Debugf("Loaded %d deals", len(deals))
	return nil
}

func (c *Catalog) Deals() []models.Deal {
	return append([]models.Deal{}, c.deals.Data()...)
}

func (c *Catalog) Loading() bool { return c.deals.Loading() }

func (c *Catalog) Status() query.Status { return c.deals.Status() }

// Err is the error of the last refresh, nil once a refresh succeeds.
func (c *Catalog) Err() error { return c.deals.Err() }

func (c *Catalog) Find(id string) (models.Deal, bool) {
	for _, d := range c.deals.Data() {
		if d.ID == id {
			return d, true
		}
	}
	return models.Deal{}, false
}
