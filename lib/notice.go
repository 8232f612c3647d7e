package lib

import (
	"context"

	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/zap"
)

type notifier struct {
	log     *zap.Logger
	senders senders.Registry
}

func (n notifier) send(ctx context.Context, level models.NoticeLevel, title, description string) {
	notice := models.NewNotice(level, title, description)
	if err := n.senders.Broadcast(ctx, notice); err != nil {
		n.log.Sugar().Warnw("Failed to deliver notice", "title", title, "err", err)
	}
}

func (n notifier) success(ctx context.Context, title string) {
	n.send(ctx, models.NoticeSuccess, title, "")
}

func (n notifier) failure(ctx context.Context, title string) {
	n.send(ctx, models.NoticeError, title, "")
}
