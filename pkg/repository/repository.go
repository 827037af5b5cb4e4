package repository

import (
	"context"

	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic GORM-backed store for simple single-table access.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, id any, values map[string]any) (int64, error)
	Count(ctx context.Context, query *T) (int64, error)
	DeleteWhere(ctx context.Context, where string, args ...any) (int64, error)
}
