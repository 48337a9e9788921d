package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

// CooldownStore держит записи подавления в go-cache, срок жизни записи равен окну подавления
type CooldownStore struct {
	cache *gocache.Cache
}

func NewCooldownStore(cleanupInterval time.Duration) service.CooldownStore {
	return &CooldownStore{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func cooldownKey(userID string, fenceID uuid.UUID) string {
	return userID + ":" + fenceID.String()
}

func (s *CooldownStore) Get(ctx context.Context, userID string, fenceID uuid.UUID) (uuid.UUID, bool, error) {
	v, ok := s.cache.Get(cooldownKey(userID, fenceID))
	if !ok {
		return uuid.Nil, false, nil
	}
	return v.(uuid.UUID), true, nil
}

func (s *CooldownStore) Set(ctx context.Context, userID string, fenceID uuid.UUID, alertID uuid.UUID, ttl time.Duration) error {
	s.cache.Set(cooldownKey(userID, fenceID), alertID, ttl)
	return nil
}

func (s *CooldownStore) Clear(ctx context.Context, userID string, fenceID uuid.UUID) error {
	s.cache.Delete(cooldownKey(userID, fenceID))
	return nil
}
