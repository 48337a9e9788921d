package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

// CachedUserDirectory - LRU с истечением поверх каталога пользователей.
// Каталог читается на каждый запрос и каждый замер, роли меняются редко.
type CachedUserDirectory struct {
	inner service.UserDirectory
	cache *expirable.LRU[string, models.User]
}

func NewCachedUserDirectory(inner service.UserDirectory, size int, ttl time.Duration) *CachedUserDirectory {
	return &CachedUserDirectory{
		inner: inner,
		cache: expirable.NewLRU[string, models.User](size, nil, ttl),
	}
}

func (d *CachedUserDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d.cache.Get(id); ok {
		return &u, nil
	}

	u, err := d.inner.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.Add(id, *u)
	return u, nil
}

// UpdateLastLocation пишет в каталог и обновляет снимок в кеше, если запись там есть
func (d *CachedUserDirectory) UpdateLastLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	if err := d.inner.UpdateLastLocation(ctx, id, lat, lng, at); err != nil {
		d.cache.Remove(id)
		return err
	}

	if u, ok := d.cache.Peek(id); ok {
		u.LastLatitude = &lat
		u.LastLongitude = &lng
		u.LastSeenAt = &at
		d.cache.Add(id, u)
	}
	return nil
}

// Invalidate сбрасывает запись после изменения пользователя вне сервиса
func (d *CachedUserDirectory) Invalidate(id string) {
	d.cache.Remove(id)
}

func (d *CachedUserDirectory) Len() int {
	return d.cache.Len()
}
