package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/observability/metrics"
	tgprovider "github.com/smallbiznis/luggagehub/internal/providers/telegram"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type DispatcherParam struct {
	fx.In

	Log           *zap.Logger
	Config        config.Config
	Users         userdomain.Service
	Subscriptions subscriptiondomain.Service
	Sender        tgprovider.Provider
	Metrics       *metrics.Metrics `optional:"true"`
}

// Dispatcher maps bot commands to user and subscription changes.
type Dispatcher struct {
	log           *zap.Logger
	botUsername   string
	users         userdomain.Service
	subscriptions subscriptiondomain.Service
	sender        tgprovider.Provider
	metrics       *metrics.Metrics
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	return &Dispatcher{
		log:           p.Log.Named("telegram.bot"),
		botUsername:   p.Config.Telegram.BotUsername,
		users:         p.Users,
		subscriptions: p.Subscriptions,
		sender:        p.Sender,
		metrics:       p.Metrics,
	}
}

// Handle answers one update. Updates without message text are ignored.
func (d *Dispatcher) Handle(ctx context.Context, update Update) error {
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return nil
	}

	chatID := update.Message.Chat.ChatID()
	reply := d.Reply(ctx, chatID, update.Message.Text)
	if reply == "" {
		return nil
	}
	if err := d.sender.SendMessage(ctx, chatID, reply); err != nil {
		return fmt.Errorf("reply to chat %s: %w", chatID, err)
	}
	return nil
}

// Reply runs the command in text for chatID and returns the text to send back.
// An empty reply means the message was meant for another bot.
func (d *Dispatcher) Reply(ctx context.Context, chatID, text string) string {
	cmd, ok := parseCommand(text)
	if ok && !cmd.addressedTo(d.botUsername) {
		return ""
	}
	if !ok || !cmd.known() {
		d.metrics.RecordBotCommand(ctx, verbUnknown)
		return replyUnknown
	}
	d.metrics.RecordBotCommand(ctx, cmd.verb)

	switch cmd.verb {
	case verbHelp:
		return replyHelp
	case verbStart:
		if cmd.arg == "" {
			return replyHelp
		}
		return d.link(ctx, chatID, cmd.arg)
	}

	user, err := d.users.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, userdomain.ErrChatNotLinked) {
			return replyNotLinked
		}
		return d.failed(cmd, err)
	}

	switch cmd.verb {
	case verbStatus:
		return d.status(ctx, cmd, user)
	case verbSubscriptions:
		return d.list(ctx, cmd, user)
	case verbMuteAll, verbStop:
		if err := d.users.SetNotificationsEnabled(ctx, user.ID, false); err != nil {
			return d.failed(cmd, err)
		}
		return replyMuted
	case verbUnmuteAll:
		if err := d.users.SetNotificationsEnabled(ctx, user.ID, true); err != nil {
			return d.failed(cmd, err)
		}
		return replyUnmuted
	case verbUnsubscribe:
		return d.setActive(ctx, cmd, user, false)
	case verbSubscribe:
		return d.setActive(ctx, cmd, user, true)
	case verbUnsubscribeAll:
		count, err := d.subscriptions.DeactivateAll(ctx, user.ID)
		if err != nil {
			return d.failed(cmd, err)
		}
		return fmt.Sprintf("Unsubscribed from %d subscription(s).", count)
	default:
		return replyUnknown
	}
}

func (d *Dispatcher) link(ctx context.Context, chatID, token string) string {
	user, err := d.users.ConsumeLinkToken(ctx, token, chatID)
	if err != nil {
		if errors.Is(err, userdomain.ErrInvalidLinkToken) {
			return replyInvalidToken
		}
		return d.failed(command{verb: verbStart}, err)
	}
	d.log.Info("telegram chat linked", zap.String("user_id", user.ID.String()))
	return fmt.Sprintf("Linked to %s. Listing updates will arrive in this chat.\n\n%s", user.DisplayName(), replyHelp)
}

func (d *Dispatcher) status(ctx context.Context, cmd command, user userdomain.User) string {
	count, err := d.subscriptions.CountActive(ctx, user.ID)
	if err != nil {
		return d.failed(cmd, err)
	}
	state := "off"
	if user.TelegramNotificationsEnabled {
		state = "on"
	}
	return fmt.Sprintf("Account: %s\nNotifications: %s\nActive subscriptions: %d", user.DisplayName(), state, count)
}

func (d *Dispatcher) list(ctx context.Context, cmd command, user userdomain.User) string {
	items, err := d.subscriptions.ListForUser(ctx, user.ID, true)
	if err != nil {
		return d.failed(cmd, err)
	}
	if len(items) == 0 {
		return replyNoSubscription
	}

	var b strings.Builder
	b.WriteString("Active subscriptions:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n%s - %s", item.ID.String(), item.ListingTitle)
	}
	b.WriteString("\n\nSend /unsubscribe <id> to pause one.")
	return b.String()
}

func (d *Dispatcher) setActive(ctx context.Context, cmd command, user userdomain.User, active bool) string {
	id, err := snowflake.ParseString(cmd.arg)
	if err != nil || id == 0 {
		return fmt.Sprintf("Usage: /%s <id>", cmd.verb)
	}

	if _, err := d.subscriptions.SetActive(ctx, user.ID, id, active); err != nil {
		if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return fmt.Sprintf("Subscription %s not found.", id.String())
		}
		return d.failed(cmd, err)
	}
	if active {
		return fmt.Sprintf("Subscription %s resumed.", id.String())
	}
	return fmt.Sprintf("Subscription %s paused.", id.String())
}

func (d *Dispatcher) failed(cmd command, err error) string {
	d.log.Error("bot command failed", zap.String("command", cmd.verb), zap.Error(err))
	return replyFailed
}
