package service

import (
	"context"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	"github.com/smallbiznis/luggagehub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMessageLength = 4000

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     conversationdomain.Repository
	requests requestdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     conversationdomain.Repository
	Requests requestdomain.Repository
}

func NewService(p ServiceParam) conversationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("conversation.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		requests: p.Requests,
	}
}

// Start returns the conversation between the user and the request's owner,
// creating it on first contact.
func (s *Service) Start(ctx context.Context, userID snowflake.ID, rawRequestID string) (conversationdomain.Conversation, error) {
	if userID == 0 {
		return conversationdomain.Conversation{}, conversationdomain.ErrInvalidUser
	}
	requestID, err := parseID(rawRequestID, conversationdomain.ErrInvalidRequest)
	if err != nil {
		return conversationdomain.Conversation{}, err
	}

	request, err := s.requests.FindByID(ctx, s.db, requestID)
	if err != nil {
		return conversationdomain.Conversation{}, err
	}
	if request == nil {
		return conversationdomain.Conversation{}, conversationdomain.ErrRequestNotFound
	}
	if request.UserID == userID {
		return conversationdomain.Conversation{}, conversationdomain.ErrOwnRequest
	}

	existing, err := s.repo.FindByParticipants(ctx, s.db, request.ID, userID, request.UserID)
	if err != nil {
		return conversationdomain.Conversation{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	conversation := conversationdomain.Conversation{
		ID:          s.genID.Generate(),
		RequestID:   request.ID,
		InitiatorID: userID,
		OwnerID:     request.UserID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &conversation); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return conversationdomain.Conversation{}, err
		}
		// another request created the row first
		existing, findErr := s.repo.FindByParticipants(ctx, s.db, request.ID, userID, request.UserID)
		if findErr != nil {
			return conversationdomain.Conversation{}, findErr
		}
		if existing == nil {
			return conversationdomain.Conversation{}, err
		}
		return *existing, nil
	}

	s.log.Info("conversation started",
		zap.String("conversation_id", conversation.ID.String()),
		zap.String("request_id", request.ID.String()),
	)
	return conversation, nil
}

// ListForUser returns the user's inbox, most recent activity first.
func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]conversationdomain.Summary, error) {
	if userID == 0 {
		return nil, conversationdomain.ErrInvalidUser
	}

	conversations, err := s.repo.ListByParticipant(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []conversationdomain.Summary{}, nil
	}

	ids := make([]snowflake.ID, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
	}
	latest, err := s.repo.LatestMessages(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCounts(ctx, s.db, ids, userID)
	if err != nil {
		return nil, err
	}

	lastByID := make(map[snowflake.ID]conversationdomain.Message, len(latest))
	for _, m := range latest {
		lastByID[m.ConversationID] = m
	}
	unreadByID := make(map[snowflake.ID]int64, len(unread))
	for _, u := range unread {
		unreadByID[u.ConversationID] = u.Count
	}

	summaries := make([]conversationdomain.Summary, 0, len(conversations))
	for _, c := range conversations {
		summary := conversationdomain.Summary{Conversation: c, UnreadCount: unreadByID[c.ID]}
		if m, ok := lastByID[c.ID]; ok {
			at := m.CreatedAt
			summary.LastMessage = m.Content
			summary.LastMessageAt = &at
		}
		summaries = append(summaries, summary)
	}
	slices.SortStableFunc(summaries, func(a, b conversationdomain.Summary) int {
		return b.LastActivity().Compare(a.LastActivity())
	})
	return summaries, nil
}

// Open returns the thread and marks the other participant's messages as read.
func (s *Service) Open(ctx context.Context, userID snowflake.ID, rawConversationID string) (conversationdomain.Thread, error) {
	conversation, err := s.participant(ctx, userID, rawConversationID)
	if err != nil {
		return conversationdomain.Thread{}, err
	}

	if _, err := s.repo.MarkRead(ctx, s.db, conversation.ID, userID); err != nil {
		return conversationdomain.Thread{}, err
	}
	messages, err := s.repo.ListMessages(ctx, s.db, conversation.ID)
	if err != nil {
		return conversationdomain.Thread{}, err
	}
	if messages == nil {
		messages = []conversationdomain.Message{}
	}
	return conversationdomain.Thread{Conversation: conversation, Messages: messages}, nil
}

func (s *Service) Send(ctx context.Context, req conversationdomain.SendRequest) (conversationdomain.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return conversationdomain.Message{}, conversationdomain.ErrInvalidContent
	}
	if len(content) > maxMessageLength {
		return conversationdomain.Message{}, conversationdomain.ErrMessageTooLong
	}

	conversation, err := s.participant(ctx, req.SenderID, req.ConversationID)
	if err != nil {
		return conversationdomain.Message{}, err
	}

	message := conversationdomain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conversation.ID,
		SenderID:       req.SenderID,
		Content:        content,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.InsertMessage(ctx, s.db, &message); err != nil {
		return conversationdomain.Message{}, err
	}
	return message, nil
}

// Delete removes the conversation for both participants.
func (s *Service) Delete(ctx context.Context, userID snowflake.ID, rawConversationID string) error {
	conversation, err := s.participant(ctx, userID, rawConversationID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, conversation.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("conversation deleted", zap.String("conversation_id", conversation.ID.String()))
	return nil
}

// UnreadCount counts messages addressed to the user that are still unread, across all conversations.
func (s *Service) UnreadCount(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, conversationdomain.ErrInvalidUser
	}
	return s.repo.CountUnreadByUser(ctx, s.db, userID)
}

func (s *Service) participant(ctx context.Context, userID snowflake.ID, rawConversationID string) (conversationdomain.Conversation, error) {
	if userID == 0 {
		return conversationdomain.Conversation{}, conversationdomain.ErrInvalidUser
	}
	conversationID, err := parseID(rawConversationID, conversationdomain.ErrInvalidConversation)
	if err != nil {
		return conversationdomain.Conversation{}, err
	}

	conversation, err := s.repo.FindByID(ctx, s.db, conversationID)
	if err != nil {
		return conversationdomain.Conversation{}, err
	}
	if conversation == nil {
		return conversationdomain.Conversation{}, conversationdomain.ErrConversationNotFound
	}
	if !conversation.HasParticipant(userID) {
		return conversationdomain.Conversation{}, conversationdomain.ErrForbidden
	}
	return *conversation, nil
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
