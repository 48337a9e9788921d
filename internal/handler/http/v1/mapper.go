package v1

import (
	"strings"

	"github.com/shenikar/tourist_safety_system/internal/models"
)

// DTOToNewAlert собирает вход сервиса; категория проверяется здесь, приоритет назначит классификатор
func DTOToNewAlert(userID string, dto CreateAlertRequest) (models.NewAlert, error) {
	category, err := models.ParseAlertCategory(dto.Category)
	if err != nil {
		return models.NewAlert{}, err
	}
	return models.NewAlert{
		UserID:      userID,
		Category:    category,
		Location:    dto.Location,
		Latitude:    *dto.Latitude,
		Longitude:   *dto.Longitude,
		Description: dto.Description,
	}, nil
}

// DTOToAlertUpdate переводит строковые перечисления в типы модели
func DTOToAlertUpdate(dto UpdateAlertRequest) (models.AlertUpdate, error) {
	update := models.AlertUpdate{
		Location:    dto.Location,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		Description: dto.Description,
	}
	if dto.Priority != nil {
		p, err := models.ParsePriority(*dto.Priority)
		if err != nil {
			return models.AlertUpdate{}, err
		}
		update.Priority = &p
	}
	if dto.Status != nil {
		s, err := models.ParseAlertStatus(*dto.Status)
		if err != nil {
			return models.AlertUpdate{}, err
		}
		update.Status = &s
	}
	return update, nil
}

// DTOToGeoFenceModel преобразует DTO зоны в модель; по умолчанию зона активна
func DTOToGeoFenceModel(dto GeoFenceRequest) (*models.GeoFence, error) {
	category, err := models.ParseZoneCategory(dto.Category)
	if err != nil {
		return nil, err
	}
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	return &models.GeoFence{
		Name:        strings.TrimSpace(dto.Name),
		Coordinates: dto.Coordinates,
		Category:    category,
		IsActive:    active,
		Description: dto.Description,
	}, nil
}

// ModelToAlertResponse преобразует доменную модель в DTO для ответа
func ModelToAlertResponse(model *models.Alert) *AlertResponse {
	return &AlertResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		Category:    string(model.Category),
		Location:    model.Location,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Description: model.Description,
		Priority:    string(model.Priority),
		Status:      string(model.Status),
		FenceID:     model.FenceID,
		ResolvedBy:  model.ResolvedBy,
		ResolvedAt:  model.ResolvedAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ModelsToAlertResponses преобразует слайс моделей в слайс DTO
func ModelsToAlertResponses(alerts []*models.Alert) []*AlertResponse {
	responses := make([]*AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = ModelToAlertResponse(a)
	}
	return responses
}

func DistancesToAlertResponses(found []models.AlertDistance) []*AlertResponse {
	responses := make([]*AlertResponse, len(found))
	for i, f := range found {
		r := ModelToAlertResponse(f.Alert)
		d := f.DistanceKm
		r.DistanceKm = &d
		responses[i] = r
	}
	return responses
}

func ModelToGeoFenceResponse(model *models.GeoFence) *GeoFenceResponse {
	return &GeoFenceResponse{
		ID:          model.ID,
		Name:        model.Name,
		Coordinates: model.Coordinates,
		Category:    string(model.Category),
		IsActive:    model.IsActive,
		Description: model.Description,
		CreatedBy:   model.CreatedBy,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func ModelsToGeoFenceResponses(fences []*models.GeoFence) []*GeoFenceResponse {
	responses := make([]*GeoFenceResponse, len(fences))
	for i, f := range fences {
		responses[i] = ModelToGeoFenceResponse(f)
	}
	return responses
}

func ModelToStatsResponse(s *models.AlertStats) *StatsResponse {
	return &StatsResponse{
		WindowDays:  s.WindowDays,
		Since:       s.Since,
		Total:       s.Total,
		ByCategory:  s.ByCategory,
		ByPriority:  s.ByPriority,
		ByStatus:    s.ByStatus,
		ByDay:       s.ByDay,
		ActiveUsers: s.ActiveUsers,
	}
}

func ModelToLocationResponse(r *models.IngestResult) *LocationResponse {
	return &LocationResponse{
		Sample:     r.Sample,
		Matches:    r.Matches,
		Alerts:     ModelsToAlertResponses(r.Alerts),
		Suppressed: r.Suppressed,
	}
}
