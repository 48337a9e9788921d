package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) service.UserStore {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, role, name, phone, email, emergency_contact, status,
			last_latitude, last_longitude, last_seen_at, created_at
		FROM users
		WHERE id = $1;
	`
	u := &models.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Role,
		&u.Name,
		&u.Phone,
		&u.Email,
		&u.EmergencyContact,
		&u.Status,
		&u.LastLatitude,
		&u.LastLongitude,
		&u.LastSeenAt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s: %w", id, service.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateLastLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	query := `
		UPDATE users SET last_latitude = $1, last_longitude = $2, last_seen_at = $3
		WHERE id = $4;
	`
	cmdTag, err := r.db.Exec(ctx, query, lat, lng, at, id)
	if err != nil {
		return fmt.Errorf("failed to update user location: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user with id %s for update: %w", id, service.ErrRecordNotFound)
	}
	return nil
}

// Upsert используется при начальном наполнении; снимок местоположения не перезаписывается
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	status := user.Status
	if status == "" {
		status = models.UserStatusActive
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, role, name, phone, email, emergency_contact, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			emergency_contact = EXCLUDED.emergency_contact,
			status = EXCLUDED.status;
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Role,
		user.Name,
		user.Phone,
		user.Email,
		user.EmergencyContact,
		status,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
