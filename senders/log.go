package senders

import (
	"context"

	"github.com/fiffu/buzdealz/lib/models"
)

type logSender struct {
	base
}

func (l *logSender) SendNotice(ctx context.Context, notice *models.Notice) (string, error) {
	sugar := l.log.Sugar()
	args := []any{"notice_id", notice.ID, "level", notice.Level}
	if notice.Kind != "" {
		args = append(args, "kind", notice.Kind)
	}

	if notice.Level == models.NoticeError {
		sugar.Warnw(notice.Title, args...)
	} else {
		sugar.Infow(notice.Title, args...)
	}
	return notice.ID, nil
}
