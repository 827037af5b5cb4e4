package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	keyTelegramUpdate = "telegram:update:%d"

	// Telegram stops redelivering an update well within a day.
	updateDedupeTTL = 24 * time.Hour
)

// UpdateDeduper remembers Telegram update ids so webhook retries are only
// dispatched once.
type UpdateDeduper struct {
	locker *Locker
	ttl    time.Duration
}

func NewUpdateDeduper(client *redis.Client) *UpdateDeduper {
	if client == nil {
		return nil
	}
	return &UpdateDeduper{locker: NewLocker(client), ttl: updateDedupeTTL}
}

// FirstSeen reports whether updateID has not been processed before and claims
// it. Without Redis every update counts as new.
func (d *UpdateDeduper) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	if d == nil || d.locker == nil {
		return true, nil
	}
	_, ok, err := d.locker.Claim(ctx, fmt.Sprintf(keyTelegramUpdate, updateID), d.ttl)
	if err != nil {
		return true, err
	}
	return ok, nil
}
