package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"github.com/smallbiznis/luggagehub/pkg/db"
	"github.com/smallbiznis/luggagehub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	cfg         config.Config
	marketplace *config.MarketplaceConfigHolder
	repo        userdomain.Repository
	tokens      userdomain.LinkTokenRepository
	userStore   repository.Repository[userdomain.User]
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Marketplace *config.MarketplaceConfigHolder
	Repo        userdomain.Repository
	Tokens      userdomain.LinkTokenRepository
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("user.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		cfg:         p.Config,
		marketplace: p.Marketplace,
		repo:        p.Repo,
		tokens:      p.Tokens,
		userStore:   repository.ProvideStore[userdomain.User](p.DB),
	}
}

// Ensure returns the user, creating the account on first sight.
func (s *Service) Ensure(ctx context.Context, req userdomain.EnsureRequest) (userdomain.User, error) {
	if req.UserID == 0 {
		return userdomain.User{}, userdomain.ErrInvalidUser
	}

	existing, err := s.repo.FindByID(ctx, s.db, req.UserID)
	if err != nil {
		return userdomain.User{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "user-" + req.UserID.String()
	}

	now := s.clock.Now()
	user := userdomain.User{
		ID:                           req.UserID,
		Username:                     username,
		TelegramNotificationsEnabled: true,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return userdomain.User{}, err
		}
		// created concurrently by another request
		return s.Get(ctx, req.UserID)
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (userdomain.User, error) {
	if id == 0 {
		return userdomain.User{}, userdomain.ErrInvalidUser
	}

	user, err := s.userStore.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return userdomain.User{}, err
	}
	if user == nil {
		return userdomain.User{}, userdomain.ErrUserNotFound
	}
	return *user, nil
}

func (s *Service) GetByChatID(ctx context.Context, chatID string) (userdomain.User, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return userdomain.User{}, userdomain.ErrInvalidChatID
	}

	user, err := s.repo.FindByChatID(ctx, s.db, chatID)
	if err != nil {
		return userdomain.User{}, err
	}
	if user == nil {
		return userdomain.User{}, userdomain.ErrChatNotLinked
	}
	return *user, nil
}

func (s *Service) ListByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]userdomain.User, error) {
	users, err := s.repo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID]userdomain.User, len(users))
	for _, user := range users {
		out[user.ID] = user
	}
	return out, nil
}

// IssueLinkToken creates a one-time token the user sends to the bot as /start <token>.
func (s *Service) IssueLinkToken(ctx context.Context, userID snowflake.ID) (userdomain.LinkTokenResponse, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return userdomain.LinkTokenResponse{}, err
	}

	now := s.clock.Now()
	token := userdomain.LinkToken{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExpiresAt: now.Add(s.marketplace.Get().LinkTokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Insert(ctx, s.db, &token); err != nil {
		return userdomain.LinkTokenResponse{}, fmt.Errorf("insert link token: %w", err)
	}

	return userdomain.LinkTokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		StartURL:  s.startURL(token.Token),
	}, nil
}

// ConsumeLinkToken binds chatID to the token's user and turns notifications on.
func (s *Service) ConsumeLinkToken(ctx context.Context, token, chatID string) (userdomain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return userdomain.User{}, userdomain.ErrInvalidLinkToken
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return userdomain.User{}, userdomain.ErrInvalidChatID
	}

	var linked userdomain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.tokens.FindByTokenForUpdate(ctx, tx, token)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if row == nil || !row.Valid(now) {
			return userdomain.ErrInvalidLinkToken
		}

		if err := s.tokens.MarkUsed(ctx, tx, row.ID, now); err != nil {
			return err
		}
		if err := s.repo.LinkChat(ctx, tx, row.UserID, chatID, now); err != nil {
			return err
		}

		user, err := s.repo.FindByID(ctx, tx, row.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return userdomain.ErrUserNotFound
		}
		linked = *user
		return nil
	})
	if err != nil {
		return userdomain.User{}, err
	}

	s.log.Info("telegram chat linked", zap.String("user_id", linked.ID.String()))
	return linked, nil
}

func (s *Service) SetNotificationsEnabled(ctx context.Context, userID snowflake.ID, enabled bool) error {
	if userID == 0 {
		return userdomain.ErrInvalidUser
	}
	return s.repo.SetNotificationsEnabled(ctx, s.db, userID, enabled, s.clock.Now())
}

// PurgeLinkTokens deletes used and expired link tokens.
func (s *Service) PurgeLinkTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteStale(ctx, s.db, s.clock.Now())
}

func (s *Service) startURL(token string) string {
	bot := s.cfg.Telegram.BotUsername
	if bot == "" {
		return ""
	}
	return "https://t.me/" + url.PathEscape(bot) + "?start=" + url.QueryEscape(token)
}
