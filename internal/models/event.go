package models

import "time"

// Типы сообщений реального времени
const (
	EventJoin                  = "join"
	EventJoined                = "joined"
	EventPanicAlert            = "panic_alert"
	EventLocationUpdate        = "location_update"
	EventPing                  = "ping"
	EventPong                  = "pong"
	EventError                 = "error"
	EventNewPanicAlert         = "new_panic_alert"
	EventTouristLocationUpdate = "tourist_location_update"
	EventAlertStatusUpdate     = "alert_status_update"
	EventAlertCreated          = "alert_created"
	EventLocationAck           = "location_ack"
)

// ChannelAuthority - общий канал всех подключённых представителей служб
const ChannelAuthority = "authority"

// UserChannel - персональный канал пользователя
func UserChannel(userID string) string {
	return "user:" + userID
}

// Event - кадр, уходящий подписчикам канала
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}
}

// TouristLocation - полезная нагрузка tourist_location_update
type TouristLocation struct {
	UserID    string    `json:"user_id"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}
