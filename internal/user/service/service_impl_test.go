package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"github.com/smallbiznis/luggagehub/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userdomain.User{}, &userdomain.LinkToken{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, fake *clock.FakeClock) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{Telegram: config.TelegramConfig{BotUsername: "luggagehub_bot"}}
	svc := NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Config:      cfg,
		Marketplace: config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig()),
		Repo:        repository.Provide(),
		Tokens:      repository.ProvideLinkTokens(),
	})
	return svc.(*Service), db
}

func TestEnsureCreatesOnce(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	user, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: 42, Username: "aziz"})
	require.NoError(t, err)
	assert.Equal(t, "aziz", user.Username)
	assert.True(t, user.TelegramNotificationsEnabled)

	again, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: 42, Username: "other"})
	require.NoError(t, err)
	assert.Equal(t, "aziz", again.Username)

	_, err = svc.Ensure(ctx, userdomain.EnsureRequest{})
	assert.ErrorIs(t, err, userdomain.ErrInvalidUser)
}

func TestLinkTokenLifecycle(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: 42})
	require.NoError(t, err)
	require.NoError(t, svc.SetNotificationsEnabled(ctx, 42, false))

	issued, err := svc.IssueLinkToken(ctx, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, fake.Now().Add(12*time.Hour), issued.ExpiresAt)
	assert.Equal(t, "https://t.me/luggagehub_bot?start="+issued.Token, issued.StartURL)

	linked, err := svc.ConsumeLinkToken(ctx, issued.Token, "555")
	require.NoError(t, err)
	assert.Equal(t, "555", linked.ChatID())
	assert.True(t, linked.TelegramNotificationsEnabled)

	byChat, err := svc.GetByChatID(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), byChat.ID)

	_, err = svc.ConsumeLinkToken(ctx, issued.Token, "555")
	assert.ErrorIs(t, err, userdomain.ErrInvalidLinkToken)
}

func TestLinkTokenExpires(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: 7})
	require.NoError(t, err)
	issued, err := svc.IssueLinkToken(ctx, 7)
	require.NoError(t, err)

	fake.Advance(13 * time.Hour)
	_, err = svc.ConsumeLinkToken(ctx, issued.Token, "900")
	assert.ErrorIs(t, err, userdomain.ErrInvalidLinkToken)

	_, err = svc.GetByChatID(ctx, "900")
	assert.ErrorIs(t, err, userdomain.ErrChatNotLinked)
}

func TestLinkingMovesChatBetweenUsers(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	for _, id := range []snowflake.ID{1, 2} {
		_, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: id})
		require.NoError(t, err)
	}

	first, err := svc.IssueLinkToken(ctx, 1)
	require.NoError(t, err)
	_, err = svc.ConsumeLinkToken(ctx, first.Token, "777")
	require.NoError(t, err)

	second, err := svc.IssueLinkToken(ctx, 2)
	require.NoError(t, err)
	_, err = svc.ConsumeLinkToken(ctx, second.Token, "777")
	require.NoError(t, err)

	owner, err := svc.GetByChatID(ctx, "777")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(2), owner.ID)

	previous, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, previous.ChatID())
}

func TestPurgeLinkTokens(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, db := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, userdomain.EnsureRequest{UserID: 5})
	require.NoError(t, err)

	used, err := svc.IssueLinkToken(ctx, 5)
	require.NoError(t, err)
	_, err = svc.ConsumeLinkToken(ctx, used.Token, "1")
	require.NoError(t, err)

	fake.Advance(11 * time.Hour)
	_, err = svc.IssueLinkToken(ctx, 5)
	require.NoError(t, err)

	fake.Advance(2 * time.Hour)
	fresh, err := svc.IssueLinkToken(ctx, 5)
	require.NoError(t, err)

	// only the used token is stale at this point
	purged, err := svc.PurgeLinkTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var remaining []userdomain.LinkToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)

	fake.Advance(11 * time.Hour)
	purged, err = svc.PurgeLinkTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.Token, remaining[0].Token)
}

func TestGetUnknownUser(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)

	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)

	_, err = svc.IssueLinkToken(context.Background(), 99)
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}
