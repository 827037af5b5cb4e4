package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/clock"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	"github.com/smallbiznis/luggagehub/internal/conversation/repository"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	requestrepo "github.com/smallbiznis/luggagehub/internal/request/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ownerID  snowflake.ID = 41
	senderID snowflake.ID = 42
	thirdID  snowflake.ID = 43
)

type fixture struct {
	svc   conversationdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&requestdomain.Request{},
		&conversationdomain.Conversation{},
		&conversationdomain.Message{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Requests: requestrepo.Provide(),
	})
	return &fixture{svc: svc, db: db, clock: fake, node: node}
}

func (f *fixture) request(t *testing.T, owner snowflake.ID) requestdomain.Request {
	now := f.clock.Now()
	request := requestdomain.Request{
		ID:        f.node.Generate(),
		UserID:    owner,
		Type:      requestdomain.TypeSend,
		Amount:    decimal.NewFromInt(50000),
		Currency:  "JPY",
		Deadline:  now.Add(72 * time.Hour),
		Status:    requestdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, requestrepo.Provide().Insert(context.Background(), f.db, &request))
	return request
}

func (f *fixture) send(t *testing.T, conversationID, sender snowflake.ID, content string) conversationdomain.Message {
	f.clock.Advance(time.Minute)
	msg, err := f.svc.Send(context.Background(), conversationdomain.SendRequest{
		ConversationID: conversationID.String(),
		SenderID:       sender,
		Content:        content,
	})
	require.NoError(t, err)
	return msg
}

func TestStartReusesConversationInEitherRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.request(t, ownerID)

	first, err := f.svc.Start(ctx, senderID, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, senderID, first.InitiatorID)
	assert.Equal(t, ownerID, first.OwnerID)

	again, err := f.svc.Start(ctx, senderID, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.svc.Start(ctx, thirdID, request.ID.String())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	// a row stored with the roles swapped is still found
	swappedRequest := f.request(t, senderID)
	require.NoError(t, f.db.Create(&conversationdomain.Conversation{
		ID: 7001, RequestID: swappedRequest.ID, InitiatorID: senderID, OwnerID: ownerID, CreatedAt: f.clock.Now(),
	}).Error)
	found, err := f.svc.Start(ctx, ownerID, swappedRequest.ID.String())
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(7001), found.ID)
}

func TestStartChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.request(t, ownerID)

	_, err := f.svc.Start(ctx, ownerID, request.ID.String())
	assert.ErrorIs(t, err, conversationdomain.ErrOwnRequest)

	_, err = f.svc.Start(ctx, senderID, "12345")
	assert.ErrorIs(t, err, conversationdomain.ErrRequestNotFound)

	_, err = f.svc.Start(ctx, senderID, "bogus")
	assert.ErrorIs(t, err, conversationdomain.ErrInvalidRequest)

	_, err = f.svc.Start(ctx, 0, request.ID.String())
	assert.ErrorIs(t, err, conversationdomain.ErrInvalidUser)
}

func TestUnreadCountsAndOpenMarksRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.request(t, ownerID)

	conversation, err := f.svc.Start(ctx, senderID, request.ID.String())
	require.NoError(t, err)
	f.send(t, conversation.ID, senderID, "hello")
	f.send(t, conversation.ID, senderID, "still there?")
	f.send(t, conversation.ID, ownerID, "yes")

	unread, err := f.svc.UnreadCount(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	unread, err = f.svc.UnreadCount(ctx, senderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	inbox, err := f.svc.ListForUser(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, int64(2), inbox[0].UnreadCount)
	assert.Equal(t, "yes", inbox[0].LastMessage)
	require.NotNil(t, inbox[0].LastMessageAt)

	thread, err := f.svc.Open(ctx, ownerID, conversation.ID.String())
	require.NoError(t, err)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "hello", thread.Messages[0].Content)
	assert.True(t, thread.Messages[0].IsRead)
	// the reader's own message is left as it was
	assert.False(t, thread.Messages[2].IsRead)

	unread, err = f.svc.UnreadCount(ctx, ownerID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = f.svc.UnreadCount(ctx, senderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestListForUserOrdersByLastActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.svc.Start(ctx, senderID, f.request(t, ownerID).ID.String())
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	newer, err := f.svc.Start(ctx, senderID, f.request(t, ownerID).ID.String())
	require.NoError(t, err)

	inbox, err := f.svc.ListForUser(ctx, senderID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, newer.ID, inbox[0].ID)
	assert.Nil(t, inbox[0].LastMessageAt)

	f.send(t, older.ID, ownerID, "ping")

	inbox, err = f.svc.ListForUser(ctx, senderID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, older.ID, inbox[0].ID)
	assert.Equal(t, int64(1), inbox[0].UnreadCount)

	empty, err := f.svc.ListForUser(ctx, thirdID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOnlyParticipantsCanReadWriteOrDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conversation, err := f.svc.Start(ctx, senderID, f.request(t, ownerID).ID.String())
	require.NoError(t, err)
	f.send(t, conversation.ID, senderID, "hi")

	_, err = f.svc.Open(ctx, thirdID, conversation.ID.String())
	assert.ErrorIs(t, err, conversationdomain.ErrForbidden)

	_, err = f.svc.Send(ctx, conversationdomain.SendRequest{ConversationID: conversation.ID.String(), SenderID: thirdID, Content: "let me in"})
	assert.ErrorIs(t, err, conversationdomain.ErrForbidden)

	err = f.svc.Delete(ctx, thirdID, conversation.ID.String())
	assert.ErrorIs(t, err, conversationdomain.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, ownerID, conversation.ID.String()))

	_, err = f.svc.Open(ctx, senderID, conversation.ID.String())
	assert.ErrorIs(t, err, conversationdomain.ErrConversationNotFound)

	var messages int64
	require.NoError(t, f.db.Model(&conversationdomain.Message{}).Count(&messages).Error)
	assert.Zero(t, messages)
}

func TestSendValidatesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conversation, err := f.svc.Start(ctx, senderID, f.request(t, ownerID).ID.String())
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, conversationdomain.SendRequest{ConversationID: conversation.ID.String(), SenderID: senderID, Content: "   "})
	assert.ErrorIs(t, err, conversationdomain.ErrInvalidContent)

	long := make([]byte, maxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.Send(ctx, conversationdomain.SendRequest{ConversationID: conversation.ID.String(), SenderID: senderID, Content: string(long)})
	assert.ErrorIs(t, err, conversationdomain.ErrMessageTooLong)

	msg, err := f.svc.Send(ctx, conversationdomain.SendRequest{ConversationID: conversation.ID.String(), SenderID: senderID, Content: "  trimmed  "})
	require.NoError(t, err)
	assert.Equal(t, "trimmed", msg.Content)
	assert.False(t, msg.IsRead)
}
