package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

type LocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) service.LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Save(ctx context.Context, sample *models.LocationSample) error {
	query := `
		INSERT INTO location_history (id, user_id, latitude, longitude, accuracy, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query,
		sample.ID,
		sample.UserID,
		sample.Latitude,
		sample.Longitude,
		sample.Accuracy,
		sample.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save location sample: %w", err)
	}
	return nil
}

// ListByUser возвращает последние замеры, новые первыми
func (r *LocationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.LocationSample, error) {
	query := `
		SELECT id, user_id, latitude, longitude, accuracy, captured_at
		FROM location_history
		WHERE user_id = $1
		ORDER BY captured_at DESC, id
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list location history: %w", err)
	}
	defer rows.Close()

	samples := make([]*models.LocationSample, 0)
	for rows.Next() {
		s := &models.LocationSample{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Latitude, &s.Longitude, &s.Accuracy, &s.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return samples, nil
}

func (r *LocationRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM location_history WHERE captured_at < $1;`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune location history: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *LocationRepository) CountDistinctUsers(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM location_history WHERE captured_at >= $1;`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}
