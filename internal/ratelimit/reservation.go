package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/luggagehub/internal/config"
)

const keyReservationCreate = "reservation:create:user:%s"

// ReservationLimiter throttles reservation creation per user. Rate and burst
// are read from the marketplace config on every call so reloads apply live.
type ReservationLimiter struct {
	enabled     bool
	bucket      *TokenBucket
	marketplace *config.MarketplaceConfigHolder
}

func NewReservationLimiter(client *redis.Client, marketplace *config.MarketplaceConfigHolder) *ReservationLimiter {
	if client == nil {
		return nil
	}
	return &ReservationLimiter{
		enabled:     true,
		bucket:      NewTokenBucket(client),
		marketplace: marketplace,
	}
}

func (l *ReservationLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ReservationLimiter) AllowReservation(ctx context.Context, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &RateLimitResult{Allowed: false}, errors.New("rate limit user is empty")
	}

	cfg := l.marketplace.Get()
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReservationCreate, userID), cfg.ReservationRate, cfg.ReservationBurst)
}
