package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"gorm.io/gorm"
)

const requestColumns = `id, user_id, type, amount, currency, deadline, urgent, hide_contacts,
	conditions, status, created_at, updated_at`

type repo struct{}

func Provide() requestdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *requestdomain.Request) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO exchange_requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.UserID,
		request.Type,
		request.Amount,
		request.Currency,
		request.Deadline,
		request.Urgent,
		request.HideContacts,
		request.Conditions,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.Request, error) {
	var request requestdomain.Request
	err := db.WithContext(ctx).Raw(
		`SELECT `+requestColumns+` FROM exchange_requests WHERE id = ?`,
		id,
	).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.Request, error) {
	var request requestdomain.Request
	err := option.ForUpdate().Apply(db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]requestdomain.Request, error) {
	var items []requestdomain.Request
	err := db.WithContext(ctx).Raw(
		`SELECT `+requestColumns+` FROM exchange_requests
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListActive returns open requests of one type, newest first.
func (r *repo) ListActive(ctx context.Context, db *gorm.DB, requestType requestdomain.Type) ([]requestdomain.Request, error) {
	var items []requestdomain.Request
	err := db.WithContext(ctx).Raw(
		`SELECT `+requestColumns+` FROM exchange_requests
		 WHERE type = ? AND status = ? ORDER BY created_at DESC, id DESC`,
		requestType,
		requestdomain.StatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, request *requestdomain.Request) error {
	return db.WithContext(ctx).Exec(
		`UPDATE exchange_requests SET
			type = ?, amount = ?, currency = ?, deadline = ?, urgent = ?, hide_contacts = ?,
			conditions = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		request.Type,
		request.Amount,
		request.Currency,
		request.Deadline,
		request.Urgent,
		request.HideContacts,
		request.Conditions,
		request.Status,
		request.UpdatedAt,
		request.ID,
	).Error
}

// Delete removes the request together with its conversations and their messages.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	for _, stmt := range []string{
		`DELETE FROM conversation_messages
		 WHERE conversation_id IN (SELECT id FROM conversations WHERE request_id = ?)`,
		`DELETE FROM conversations WHERE request_id = ?`,
		`DELETE FROM exchange_requests WHERE id = ?`,
	} {
		if err := db.WithContext(ctx).Exec(stmt, id).Error; err != nil {
			return err
		}
	}
	return nil
}
