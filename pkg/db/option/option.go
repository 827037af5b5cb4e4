package option

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/luggagehub/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPageSize = 250

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// WithSortBy orders results by one column, ascending unless desc is set.
func WithSortBy(column string, desc bool) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column = strings.TrimSpace(column)
		if column == "" {
			return db
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	})
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ForUpdate adds a row lock. Dialects without row locks ignore it.
func ForUpdate() QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	})
}

// ApplyPagination applies keyset pagination on (created_at, id) descending.
// One extra row is fetched so callers can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if size > maxPageSize {
			size = maxPageSize
		}

		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor != nil {
				createdAt, timeErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
				if timeErr == nil && idErr == nil {
					db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
				}
			}
		}

		return db.Limit(size + 1)
	})
}
