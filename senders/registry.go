package senders

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/models"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sender delivers a notice on one channel. It returns a channel-specific
// message id, or "" when the sender chose not to deliver the notice.
type Sender interface {
	SendNotice(ctx context.Context, notice *models.Notice) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper, feed *Feed) Registry {
	base := base{log, cfg, transport}
	registry := Registry{
		"feed": feed,
		"log":  &logSender{base},
	}
	if cfg.Mailgun.Domain != "" && cfg.Mailgun.APIKey != "" {
		registry["email"] = &mailgunSender{base}
	} else {
		log.Sugar().Info("Email alerts are disabled since no mailgun credentials are defined")
	}
	return registry
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}

// Broadcast sends notice on every channel and combines their failures.
func (r Registry) Broadcast(ctx context.Context, notice *models.Notice) error {
	var errs error
	for _, name := range r.channels() {
		if _, err := r[name].SendNotice(ctx, notice); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs
}

func (r Registry) channels() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
