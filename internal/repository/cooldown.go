package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

// CooldownStore хранит окна подавления в Redis, истечение окна делает сам Redis через TTL
type CooldownStore struct {
	redisClient *redis.Client
}

func NewCooldownStore(redisClient *redis.Client) service.CooldownStore {
	return &CooldownStore{redisClient: redisClient}
}

func cooldownKey(userID string, fenceID uuid.UUID) string {
	return fmt.Sprintf("cooldown:%s:%s", userID, fenceID.String())
}

func (s *CooldownStore) Get(ctx context.Context, userID string, fenceID uuid.UUID) (uuid.UUID, bool, error) {
	val, err := s.redisClient.Get(ctx, cooldownKey(userID, fenceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to get cooldown: %w", err)
	}

	alertID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupted cooldown entry %q: %w", val, err)
	}
	return alertID, true, nil
}

func (s *CooldownStore) Set(ctx context.Context, userID string, fenceID uuid.UUID, alertID uuid.UUID, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, cooldownKey(userID, fenceID), alertID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}

func (s *CooldownStore) Clear(ctx context.Context, userID string, fenceID uuid.UUID) error {
	if err := s.redisClient.Del(ctx, cooldownKey(userID, fenceID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cooldown: %w", err)
	}
	return nil
}
