package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *userdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (
			id, username, telegram_chat_id, telegram_notifications_enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.TelegramChatID,
		user.TelegramNotificationsEnabled,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, telegram_chat_id, telegram_notifications_enabled, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]userdomain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, telegram_chat_id, telegram_notifications_enabled, created_at, updated_at
		 FROM users WHERE id IN ?`,
		ids,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) FindByChatID(ctx context.Context, db *gorm.DB, chatID string) (*userdomain.User, error) {
	var user userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, telegram_chat_id, telegram_notifications_enabled, created_at, updated_at
		 FROM users WHERE telegram_chat_id = ?`,
		chatID,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

// LinkChat moves chatID to the given user. A chat belongs to at most one user,
// so any previous owner of the chat is unlinked first.
func (r *repo) LinkChat(ctx context.Context, db *gorm.DB, id snowflake.ID, chatID string, now time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE users SET telegram_chat_id = NULL, updated_at = ?
		 WHERE telegram_chat_id = ? AND id <> ?`,
		now,
		chatID,
		id,
	).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE users SET telegram_chat_id = ?, telegram_notifications_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		chatID,
		true,
		now,
		id,
	).Error
}

func (r *repo) SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id snowflake.ID, enabled bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET telegram_notifications_enabled = ?, updated_at = ? WHERE id = ?`,
		enabled,
		now,
		id,
	).Error
}

type linkTokenRepo struct{}

func ProvideLinkTokens() userdomain.LinkTokenRepository {
	return &linkTokenRepo{}
}

func (r *linkTokenRepo) Insert(ctx context.Context, db *gorm.DB, token *userdomain.LinkToken) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO telegram_link_tokens (id, user_id, token, expires_at, used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.UsedAt,
		token.CreatedAt,
	).Error
}

func (r *linkTokenRepo) FindByTokenForUpdate(ctx context.Context, db *gorm.DB, token string) (*userdomain.LinkToken, error) {
	var row userdomain.LinkToken
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("token = ?", token).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *linkTokenRepo) MarkUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, usedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE telegram_link_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		usedAt,
		id,
	).Error
}

func (r *linkTokenRepo) DeleteStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM telegram_link_tokens WHERE used_at IS NOT NULL OR expires_at <= ?`,
		now,
	)
	return res.RowsAffected, res.Error
}
