package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

// UserDirectory - каталог пользователей в памяти, наполняется при старте
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewUserDirectory() service.UserStore {
	return &UserDirectory{users: make(map[string]*models.User)}
}

func (d *UserDirectory) Upsert(ctx context.Context, user *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := *user
	if c.Status == "" {
		c.Status = models.UserStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	d.users[user.ID] = &c
	return nil
}

func (d *UserDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, service.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

func (d *UserDirectory) UpdateLastLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return service.ErrRecordNotFound
	}
	c := *u
	c.LastLatitude = &lat
	c.LastLongitude = &lng
	c.LastSeenAt = &at
	d.users[id] = &c
	return nil
}
