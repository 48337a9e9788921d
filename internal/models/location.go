package models

import (
	"time"

	"github.com/google/uuid"
)

// LocationSample - неизменяемая запись истории перемещений
type LocationSample struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// IngestResult - что произошло при обработке одного замера
type IngestResult struct {
	Sample     *LocationSample `json:"sample"`
	Matches    []FenceMatch    `json:"matches"`
	Alerts     []*Alert        `json:"alerts"`
	Suppressed int             `json:"suppressed"`
}
