package notification

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/observability/metrics"
	"github.com/smallbiznis/luggagehub/internal/providers/telegram"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"github.com/smallbiznis/luggagehub/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Notifier delivers listing events. Delivery is best effort and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, listing ListingInfo, event Event)
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	subscriptions subscriptiondomain.Repository
	users         userdomain.Repository
	sender        telegram.Provider
	marketplace   *config.MarketplaceConfigHolder
	metrics       *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Subscriptions subscriptiondomain.Repository
	Users         userdomain.Repository
	Sender        telegram.Provider
	Marketplace   *config.MarketplaceConfigHolder
	Metrics       *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("notification.service"),

		subscriptions: p.Subscriptions,
		users:         p.Users,
		sender:        p.Sender,
		marketplace:   p.Marketplace,
		metrics:       p.Metrics,
	}
}

type recipient struct {
	userID snowflake.ID
	chatID string
}

// Notify sends one message to every active subscriber of the listing that opted
// into the event's kind and can be reached. Failures are logged per recipient.
func (s *Service) Notify(ctx context.Context, listing ListingInfo, event Event) {
	kind := event.Kind()
	if kind.Topic() == "" {
		s.log.Warn("dropping notification with unknown kind", zap.String("event_type", kind.String()))
		return
	}

	// deliveries outlive a cancelled request
	ctx = correlation.Detach(ctx)
	log := s.log.With(
		zap.String("listing_id", listing.ID.String()),
		zap.String("event_type", kind.String()),
	)

	subs, err := s.subscriptions.ListForEvent(ctx, s.db, listing.ID, kind.Topic())
	if err != nil {
		log.Warn("failed to load subscribers", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	userIDs := make([]snowflake.ID, 0, len(subs))
	for _, sub := range subs {
		if kind.Enabled(sub.Preferences) {
			userIDs = append(userIDs, sub.UserID)
		}
	}
	users, err := s.users.FindByIDs(ctx, s.db, userIDs)
	if err != nil {
		log.Warn("failed to load subscriber accounts", zap.Error(err))
		return
	}
	byID := make(map[snowflake.ID]userdomain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	recipients := make([]recipient, 0, len(userIDs))
	for _, id := range userIDs {
		u, ok := byID[id]
		if !ok || !u.Reachable() {
			s.metrics.RecordNotification(ctx, kind.String(), metrics.NotificationSkipped)
			continue
		}
		recipients = append(recipients, recipient{userID: u.ID, chatID: u.ChatID()})
	}
	if len(recipients) == 0 {
		return
	}

	text := BuildMessage(listing, event)

	limit := s.marketplace.Get().NotifyParallelism
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, rcpt := range recipients {
		g.Go(func() error {
			if err := s.sender.SendMessage(ctx, rcpt.chatID, text); err != nil {
				s.metrics.RecordNotification(ctx, kind.String(), metrics.NotificationFailed)
				log.Warn("telegram delivery failed",
					zap.String("user_id", rcpt.userID.String()),
					zap.Error(err),
				)
				return nil
			}
			s.metrics.RecordNotification(ctx, kind.String(), metrics.NotificationSent)
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("notification fan-out finished", zap.Int("recipients", len(recipients)))
}
