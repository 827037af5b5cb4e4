package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *Request) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Request, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Request, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Request, error)
	ListActive(ctx context.Context, db *gorm.DB, requestType Type) ([]Request, error)
	Update(ctx context.Context, db *gorm.DB, request *Request) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
