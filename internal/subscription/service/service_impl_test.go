package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/clock"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	listingrepo "github.com/smallbiznis/luggagehub/internal/listing/repository"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	"github.com/smallbiznis/luggagehub/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	userID  snowflake.ID = 7
	otherID snowflake.ID = 8
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&listingdomain.Listing{}, &subscriptiondomain.Subscription{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (subscriptiondomain.Service, *gorm.DB, listingdomain.Listing) {
	db := setupTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	listing := listingdomain.Listing{
		ID:             node.Generate(),
		SellerID:       1,
		Title:          "Tashkent to Tokyo",
		Slug:           "tashkent-to-tokyo",
		TotalKg:        decimal.NewFromInt(10),
		PricePerKg:     decimal.NewFromInt(12),
		PriceCurrency:  "USD",
		AvailableUntil: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		DepartureCity:  "Tashkent",
		ArrivalCity:    "Tokyo",
		IsActive:       true,
		CreatedAt:      fake.Now(),
		UpdatedAt:      fake.Now(),
	}
	require.NoError(t, listingrepo.Provide().Insert(context.Background(), db, &listing))

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Listings: listingrepo.Provide(),
	})
	return svc, db, listing
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc, db, listing := newTestService(t)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Equal(t, subscriptiondomain.DefaultPreferences(), first.Preferences)

	second, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubscribeReactivates(t *testing.T) {
	svc, _, listing := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	_, err = svc.SetActive(ctx, userID, sub.ID, false)
	require.NoError(t, err)

	again, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.True(t, again.IsActive)
}

func TestToggleFlipsActive(t *testing.T) {
	svc, _, listing := newTestService(t)
	ctx := context.Background()

	created, err := svc.Toggle(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	off, err := svc.Toggle(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, created.ID, off.ID)

	on, err := svc.Toggle(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	assert.True(t, on.IsActive)
}

func TestSubscribeUnknownListing(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Subscribe(context.Background(), userID, "123456")
	assert.ErrorIs(t, err, subscriptiondomain.ErrListingNotFound)

	_, err = svc.Subscribe(context.Background(), userID, "x")
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidListing)
}

func TestUpdatePreferencesWritesWholeRecord(t *testing.T) {
	svc, _, listing := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)

	prefs := subscriptiondomain.Preferences{NotifyOnReopened: true}
	inactive := false
	updated, err := svc.UpdatePreferences(ctx, subscriptiondomain.UpdateRequest{
		UserID:         userID,
		SubscriptionID: sub.ID.String(),
		Preferences:    prefs,
		IsActive:       &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, prefs, updated.Preferences)
	assert.False(t, updated.IsActive)

	stored, err := svc.Get(ctx, userID, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, prefs, stored.Preferences)
	assert.False(t, stored.IsActive)

	_, err = svc.UpdatePreferences(ctx, subscriptiondomain.UpdateRequest{
		UserID:         otherID,
		SubscriptionID: sub.ID.String(),
		Preferences:    subscriptiondomain.DefaultPreferences(),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}

func TestDeactivateAllAndCounts(t *testing.T) {
	svc, db, listing := newTestService(t)
	ctx := context.Background()

	second := listing
	second.ID = listing.ID + 1
	second.Title = "Second trip"
	require.NoError(t, listingrepo.Provide().Insert(ctx, db, &second))

	_, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, userID, second.ID.String())
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, otherID, listing.ID.String())
	require.NoError(t, err)

	count, err := svc.CountActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	items, err := svc.ListForUser(ctx, userID, true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.ElementsMatch(t, []string{"Tashkent to Tokyo", "Second trip"}, []string{items[0].ListingTitle, items[1].ListingTitle})

	n, err := svc.DeactivateAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err = svc.ListForUser(ctx, userID, true)
	require.NoError(t, err)
	assert.Empty(t, items)

	all, err := svc.ListForUser(ctx, userID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	others, err := svc.CountActive(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), others)
}

func TestListForEventFiltersByTopic(t *testing.T) {
	svc, db, listing := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, userID, listing.ID.String())
	require.NoError(t, err)
	_, err = svc.UpdatePreferences(ctx, subscriptiondomain.UpdateRequest{
		UserID:         userID,
		SubscriptionID: sub.ID.String(),
		Preferences:    subscriptiondomain.Preferences{NotifyOnSoldOut: true},
	})
	require.NoError(t, err)

	repo := repository.Provide()
	soldOut, err := repo.ListForEvent(ctx, db, listing.ID, subscriptiondomain.TopicSoldOut)
	require.NoError(t, err)
	assert.Len(t, soldOut, 1)

	reopened, err := repo.ListForEvent(ctx, db, listing.ID, subscriptiondomain.TopicReopened)
	require.NoError(t, err)
	assert.Empty(t, reopened)

	_, err = repo.ListForEvent(ctx, db, listing.ID, subscriptiondomain.Topic("1=1 OR notify_on_sold_out"))
	assert.Error(t, err)
}
