package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

type GeoFenceRepository struct {
	db *pgxpool.Pool
}

func NewGeoFenceRepository(db *pgxpool.Pool) service.GeoFenceRepository {
	return &GeoFenceRepository{db: db}
}

const geofenceColumns = `id, name, coordinates, category, is_active, description, created_by, created_at, updated_at`

// Create сохраняет зону; полигон хранится как JSONB-массив точек
func (r *GeoFenceRepository) Create(ctx context.Context, fence *models.GeoFence) error {
	coords, err := json.Marshal(fence.Coordinates)
	if err != nil {
		return fmt.Errorf("failed to marshal geofence coordinates: %w", err)
	}

	query := `
		INSERT INTO geofences (id, name, coordinates, category, is_active, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err = r.db.Exec(ctx, query,
		fence.ID,
		fence.Name,
		coords,
		fence.Category,
		fence.IsActive,
		fence.Description,
		fence.CreatedBy,
		fence.CreatedAt,
		fence.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}
	return nil
}

func (r *GeoFenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeoFence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE id = $1;`

	fence, err := scanGeoFence(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("geofence with id %s: %w", id, service.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get geofence by id: %w", err)
	}
	return fence, nil
}

func (r *GeoFenceRepository) Update(ctx context.Context, fence *models.GeoFence) error {
	coords, err := json.Marshal(fence.Coordinates)
	if err != nil {
		return fmt.Errorf("failed to marshal geofence coordinates: %w", err)
	}

	query := `
		UPDATE geofences SET
			name = $1,
			coordinates = $2,
			category = $3,
			is_active = $4,
			description = $5,
			updated_at = $6
		WHERE id = $7;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		fence.Name,
		coords,
		fence.Category,
		fence.IsActive,
		fence.Description,
		fence.UpdatedAt,
		fence.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update geofence: %w", err)
	}

	// RowsAffected() == 0 значит зоны с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("geofence with id %s for update: %w", fence.ID, service.ErrRecordNotFound)
	}
	return nil
}

func (r *GeoFenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM geofences WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete geofence: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("geofence with id %s for delete: %w", id, service.ErrRecordNotFound)
	}
	return nil
}

func (r *GeoFenceRepository) List(ctx context.Context, filter models.GeoFenceFilter) ([]*models.GeoFence, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `SELECT ` + geofenceColumns + ` FROM geofences`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id;"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	defer rows.Close()

	fences := make([]*models.GeoFence, 0)
	for rows.Next() {
		fence, err := scanGeoFence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence row: %w", err)
		}
		fences = append(fences, fence)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return fences, nil
}

func scanGeoFence(row pgx.Row) (*models.GeoFence, error) {
	fence := &models.GeoFence{}
	var (
		coords    []byte
		createdBy *string
	)
	err := row.Scan(
		&fence.ID,
		&fence.Name,
		&coords,
		&fence.Category,
		&fence.IsActive,
		&fence.Description,
		&createdBy,
		&fence.CreatedAt,
		&fence.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		fence.CreatedBy = *createdBy
	}
	if err := json.Unmarshal(coords, &fence.Coordinates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal geofence coordinates: %w", err)
	}
	return fence, nil
}
