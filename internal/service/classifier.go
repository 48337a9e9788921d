package service

import (
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
)

// Classify - фиксированная таблица приоритетов; признак автоматической тревоги на результат не влияет
func Classify(category models.AlertCategory, isAutomatic bool) (models.Priority, error) {
	switch category {
	case models.CategoryPanic, models.CategoryMedical:
		return models.PriorityCritical, nil
	case models.CategoryCrime:
		return models.PriorityHigh, nil
	case models.CategoryLost:
		return models.PriorityMedium, nil
	}
	return "", apperror.Validation(apperror.ReasonInvalidCategory, "unknown alert category %q", category).
		WithField("category", "must be one of panic, medical, crime, lost")
}
