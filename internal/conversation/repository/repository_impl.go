package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	"gorm.io/gorm"
)

const (
	conversationColumns = `id, request_id, initiator_id, owner_id, created_at`
	messageColumns      = `id, conversation_id, sender_id, content, is_read, created_at`
)

type repo struct{}

func Provide() conversationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conversation *conversationdomain.Conversation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?)`,
		conversation.ID,
		conversation.RequestID,
		conversation.InitiatorID,
		conversation.OwnerID,
		conversation.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*conversationdomain.Conversation, error) {
	var conversation conversationdomain.Conversation
	err := db.WithContext(ctx).Raw(
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`,
		id,
	).Scan(&conversation).Error
	if err != nil {
		return nil, err
	}
	if conversation.ID == 0 {
		return nil, nil
	}
	return &conversation, nil
}

// FindByParticipants matches the pair in either role.
func (r *repo) FindByParticipants(ctx context.Context, db *gorm.DB, requestID, a, b snowflake.ID) (*conversationdomain.Conversation, error) {
	var conversation conversationdomain.Conversation
	err := db.WithContext(ctx).Raw(
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE request_id = ?
		   AND ((initiator_id = ? AND owner_id = ?) OR (initiator_id = ? AND owner_id = ?))
		 ORDER BY id LIMIT 1`,
		requestID,
		a, b,
		b, a,
	).Scan(&conversation).Error
	if err != nil {
		return nil, err
	}
	if conversation.ID == 0 {
		return nil, nil
	}
	return &conversation, nil
}

func (r *repo) ListByParticipant(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]conversationdomain.Conversation, error) {
	var items []conversationdomain.Conversation
	err := db.WithContext(ctx).Raw(
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE initiator_id = ? OR owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM conversation_messages WHERE conversation_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM conversations WHERE id = ?`, id).Error
}

func (r *repo) InsertMessage(ctx context.Context, db *gorm.DB, message *conversationdomain.Message) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO conversation_messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.ConversationID,
		message.SenderID,
		message.Content,
		message.IsRead,
		message.CreatedAt,
	).Error
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) ([]conversationdomain.Message, error) {
	var items []conversationdomain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT `+messageColumns+` FROM conversation_messages
		 WHERE conversation_id = ? ORDER BY created_at, id`,
		conversationID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// LatestMessages returns the newest message of each conversation. Message ids are
// snowflakes, so the highest id is the latest one.
func (r *repo) LatestMessages(ctx context.Context, db *gorm.DB, conversationIDs []snowflake.ID) ([]conversationdomain.Message, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	var items []conversationdomain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.created_at
		 FROM conversation_messages m
		 WHERE m.conversation_id IN ?
		   AND m.id = (SELECT MAX(x.id) FROM conversation_messages x WHERE x.conversation_id = m.conversation_id)`,
		conversationIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UnreadCounts(ctx context.Context, db *gorm.DB, conversationIDs []snowflake.ID, readerID snowflake.ID) ([]conversationdomain.UnreadCount, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	var items []conversationdomain.UnreadCount
	err := db.WithContext(ctx).Raw(
		`SELECT conversation_id, COUNT(*) AS count FROM conversation_messages
		 WHERE conversation_id IN ? AND is_read = ? AND sender_id <> ?
		 GROUP BY conversation_id`,
		conversationIDs,
		false,
		readerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead flags every message the reader did not send as read.
func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, conversationID, readerID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE conversation_messages SET is_read = ?
		 WHERE conversation_id = ? AND sender_id <> ? AND is_read = ?`,
		true,
		conversationID,
		readerID,
		false,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) CountUnreadByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM conversation_messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE (c.initiator_id = ? OR c.owner_id = ?) AND m.is_read = ? AND m.sender_id <> ?`,
		userID,
		userID,
		false,
		userID,
	).Scan(&count).Error
	return count, err
}
