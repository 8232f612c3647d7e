// Package poller keeps the signed-in user's notifications fresh and turns
// notifications the user has not seen before into price drop notices.
package poller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pollTimeout = 20 * time.Second

type Session interface {
	User() *models.User
	OnChange(fn func(ctx context.Context, authenticated bool))
}

type API interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context) error
}

type Poller struct {
	log     *zap.Logger
	db      *gorm.DB
	client  API
	session Session
	senders senders.Registry

	alarmClock    *alarmClock
	notifications *query.Query[[]models.Notification]

	pollMu sync.Mutex // one poll at a time

	mu        sync.Mutex
	baselined bool // a poll has completed in the current session
	totals    pollMetrics
}

func NewPoller(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, client API, session Session, registry senders.Registry, opts ...query.Option) *Poller {
	p := &Poller{
		log:        log,
		db:         db,
		client:     client,
		session:    session,
		senders:    registry,
		alarmClock: NewAlarmClock(cfg.NotificationPollInterval),
	}
	opts = append(opts, query.Disabled())
	p.notifications = query.New[[]models.Notification](client.Notifications, []models.Notification{}, opts...)
	p.notifications.Subscribe(func(ns []models.Notification) {
		unreadGauge.Set(float64(models.Notifications(ns).UnreadCount()))
	})
	session.OnChange(p.onSessionChange)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop notification poller")
			p.Stop()
			return nil
		},
	})
	return p
}

func (p *Poller) Start(ctx context.Context) {
	c := p.alarmClock.Start(ctx)

	go func() {
		for evt := range c {
			p.handleEvent(ctx, evt)
		}
	}()
}

func (p *Poller) Stop() {
	p.alarmClock.Stop()

	p.mu.Lock()
	totals := p.totals
	p.mu.Unlock()
	p.log.Sugar().Infow("Notification poller stopped", totals.logArgs()...)
}

func (p *Poller) handleEvent(ctx context.Context, evt Event) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	m, err := p.Poll(ctx)
	if err != nil {
		p.log.Sugar().Warnw("Notification poll failed", "err", err, "woke_at", evt.Timestamp())
		return
	}
	if m.surfaced > 0 {
		p.log.Sugar().Infow(fmt.Sprintf("Surfaced %d new notifications", m.surfaced), m.logArgs()...)
	}
}

func (p *Poller) onSessionChange(ctx context.Context, authenticated bool) {
	p.mu.Lock()
	p.baselined = false
	p.mu.Unlock()

	p.notifications.SetEnabled(authenticated)
	if authenticated {
		p.alarmClock.Nudge()
	}
}

// Poll fetches notifications once and surfaces the ones this user has not
// seen. The first poll of a session only records what is already there.
func (p *Poller) Poll(ctx context.Context) (m pollMetrics, err error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	defer func() {
		m.record()
		p.mu.Lock()
		p.totals.Add(&m)
		p.mu.Unlock()
	}()

	user := p.session.User()
	if user == nil || !p.notifications.Enabled() {
		m.skipped++
		return m, nil
	}

	list, err := p.notifications.Refetch(ctx)
	if err != nil {
		m.errored++
		return m, err
	}
	if current := p.session.User(); current == nil || userKey(current) != userKey(user) {
		// Signed out or switched accounts mid-poll.
		m.skipped++
		return m, nil
	}
	m.fetched = len(list)

	key := userKey(user)
	seen, err := p.seenIDs(key)
	if err != nil {
		m.errored++
		return m, err
	}

	unseen := make([]models.Notification, 0)
	for _, n := range list {
		if _, ok := seen[string(n.ID)]; !ok {
			unseen = append(unseen, n)
		}
	}

	p.mu.Lock()
	silent := !p.baselined && len(seen) == 0
	p.baselined = true
	p.mu.Unlock()

	if len(unseen) == 0 {
		return m, nil
	}
	if err := p.markSeen(key, unseen); err != nil {
		m.errored++
		return m, err
	}
	if silent {
		m.baseline = len(unseen)
		return m, nil
	}

	sort.SliceStable(unseen, func(i, j int) bool {
		return unseen[i].CreatedAt.After(unseen[j].CreatedAt)
	})
	for _, n := range unseen {
		p.surface(ctx, user, n)
		m.surfaced++
	}
	return m, nil
}

func (p *Poller) surface(ctx context.Context, user *models.User, n models.Notification) {
	notice := models.NewNotice(models.NoticeInfo, n.Title, PlainText(n.Message))
	notice.Kind = models.KindPriceDrop
	notice.Recipient = user.Email
	if err := p.senders.Broadcast(ctx, notice); err != nil {
		p.log.Sugar().Warnw("Failed to deliver price drop", "notification_id", n.ID, "err", err)
	}
}

func (p *Poller) seenIDs(userID string) (map[string]struct{}, error) {
	var rows []models.SeenNotification
	tx := p.db.Where("user_id = ?", userID).Find(&rows)
	if err := tx.Error; err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		seen[row.NotificationID] = struct{}{}
	}
	return seen, nil
}

func (p *Poller) markSeen(userID string, ns []models.Notification) error {
	now := time.Now().UTC()
	rows := make([]models.SeenNotification, len(ns))
	for i, n := range ns {
		rows[i] = models.SeenNotification{UserID: userID, NotificationID: string(n.ID), SeenAt: now}
	}
	return p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (p *Poller) Notifications() models.Notifications {
	return append(models.Notifications{}, p.notifications.Data()...)
}

func (p *Poller) UnreadCount() int {
	return models.Notifications(p.notifications.Data()).UnreadCount()
}

func (p *Poller) Loading() bool {
	return p.notifications.Loading()
}

// MarkAllRead marks every notification read in one request and then
// refetches the list. Once the server has confirmed, nothing reads as unread
// even if the refetch fails.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	if p.session.User() == nil {
		p.notify(ctx, "Please sign in to view notifications")
		return models.ErrAuthRequired
	}
	if err := p.client.MarkNotificationsRead(ctx); err != nil {
		p.notify(ctx, api.Message(err, "Failed to mark notifications as read"))
		return err
	}
	if err := p.notifications.Invalidate(ctx); err != nil {
		p.log.Sugar().Warnw("Failed to refresh notifications", "err", err)
		p.notifications.Set(markedRead(p.notifications.Data()))
	}
	return nil
}

func markedRead(ns []models.Notification) []models.Notification {
	out := make([]models.Notification, len(ns))
	for i, n := range ns {
		n.Read = true
		out[i] = n
	}
	return out
}

func (p *Poller) notify(ctx context.Context, title string) {
	notice := models.NewNotice(models.NoticeError, title, "")
	if err := p.senders.Broadcast(ctx, notice); err != nil {
		p.log.Sugar().Warnw("Failed to deliver notice", "title", title, "err", err)
	}
}

func userKey(u *models.User) string {
	if u.ID != "" {
		return string(u.ID)
	}
	return u.Email
}
