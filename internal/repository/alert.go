package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/shenikar/tourist_safety_system/pkg/geo"
	"github.com/sirupsen/logrus"
)

// AlertRepository - тревоги в PostgreSQL с read-through кешем в Redis.
// redisClient может быть nil, тогда кеш не используется.
type AlertRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      *logrus.Logger
}

func NewAlertRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) service.AlertRepository {
	return &AlertRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

const alertColumns = `id, user_id, category, location, latitude, longitude, description, priority, status,
	fence_id, resolved_by, resolved_at, created_at, updated_at`

// Create вставляет тревогу; повтор с тем же id ничего не делает
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, category, location, latitude, longitude, description, priority, status,
			fence_id, resolved_by, resolved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.Category,
		alert.Location,
		alert.Latitude,
		alert.Longitude,
		alert.Description,
		alert.Priority,
		alert.Status,
		alert.FenceID,
		alert.ResolvedBy,
		alert.ResolvedAt,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByID сначала смотрит в кеш; ошибки Redis не мешают чтению из БД
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if cached, err := r.getFromCache(ctx, id); err != nil {
		r.logger.WithError(err).WithField("alert_id", id).Warn("Alert cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1;`
	alert, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert with id %s: %w", id, service.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}

	if err := r.setCache(ctx, alert); err != nil {
		r.logger.WithError(err).WithField("alert_id", id).Warn("Alert cache write failed")
	}
	return alert, nil
}

// Update меняет только изменяемые поля; user_id и created_at не трогаются
func (r *AlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	query := `
		UPDATE alerts SET
			location = $1,
			latitude = $2,
			longitude = $3,
			description = $4,
			priority = $5,
			status = $6,
			resolved_by = $7,
			resolved_at = $8,
			updated_at = $9
		WHERE id = $10;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		alert.Location,
		alert.Latitude,
		alert.Longitude,
		alert.Description,
		alert.Priority,
		alert.Status,
		alert.ResolvedBy,
		alert.ResolvedAt,
		alert.UpdatedAt,
		alert.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("alert with id %s for update: %w", alert.ID, service.ErrRecordNotFound)
	}

	if err := r.invalidateCache(ctx, alert.ID); err != nil {
		// устаревшая запись доживёт до TTL, следующее чтение из БД её перезапишет
		r.logger.WithError(err).WithField("alert_id", alert.ID).Warn("Alert cache invalidation failed")
	}
	return nil
}

func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Category != nil {
		add("category = $%d", *filter.Category)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Since != nil {
		add("created_at >= $%d", *filter.Since)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryAlerts(ctx, query, args...)
}

// ListActiveInBox - грубый предфильтр для поиска по радиусу, точное расстояние считает сервис
func (r *AlertRepository) ListActiveInBox(ctx context.Context, box geo.BBox) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE status = 'active'
			AND latitude BETWEEN $1 AND $2
			AND longitude BETWEEN $3 AND $4;
	`
	return r.queryAlerts(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
}

// Stats - одна группировка по всем измерениям, свёртка в Go
func (r *AlertRepository) Stats(ctx context.Context, since time.Time) (*models.AlertStats, error) {
	query := `
		SELECT category, priority, status, (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
		FROM alerts
		WHERE created_at >= $1
		GROUP BY category, priority, status, day
		ORDER BY day;
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate alert stats: %w", err)
	}
	defer rows.Close()

	stats := models.NewAlertStats(0, since)
	for rows.Next() {
		var (
			category models.AlertCategory
			priority models.Priority
			status   models.AlertStatus
			day      time.Time
			count    int
		)
		if err := rows.Scan(&category, &priority, &status, &day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert stats row: %w", err)
		}
		stats.Total += count
		stats.ByCategory[category] += count
		stats.ByPriority[priority] += count
		stats.ByStatus[status] += count

		date := day.Format(time.DateOnly)
		if n := len(stats.ByDay); n > 0 && stats.ByDay[n-1].Date == date {
			stats.ByDay[n-1].Count += count
		} else {
			stats.ByDay = append(stats.ByDay, models.DayCount{Date: date, Count: count})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error stats iteration: %w", err)
	}
	return stats, nil
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return alerts, nil
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	alert := &models.Alert{}
	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.Category,
		&alert.Location,
		&alert.Latitude,
		&alert.Longitude,
		&alert.Description,
		&alert.Priority,
		&alert.Status,
		&alert.FenceID,
		&alert.ResolvedBy,
		&alert.ResolvedAt,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func alertCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("alert:%s", id.String())
}

// getFromCache возвращает nil, nil при промахе
func (r *AlertRepository) getFromCache(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if r.redisClient == nil {
		return nil, nil
	}
	val, err := r.redisClient.Get(ctx, alertCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert from cache: %w", err)
	}

	alert := &models.Alert{}
	if err := json.Unmarshal(val, alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert from cache: %w", err)
	}
	return alert, nil
}

func (r *AlertRepository) setCache(ctx context.Context, alert *models.Alert) error {
	if r.redisClient == nil {
		return nil
	}
	val, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, alertCacheKey(alert.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set alert in cache: %w", err)
	}
	return nil
}

func (r *AlertRepository) invalidateCache(ctx context.Context, id uuid.UUID) error {
	if r.redisClient == nil {
		return nil
	}
	if err := r.redisClient.Del(ctx, alertCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate alert cache: %w", err)
	}
	return nil
}
