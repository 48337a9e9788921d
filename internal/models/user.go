package models

import "time"

// User - турист или представитель службы; core читает только id, роль и снимок местоположения
type User struct {
	ID               string     `json:"id"`
	Role             Role       `json:"role"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	Status           UserStatus `json:"status"`
	LastLatitude     *float64   `json:"last_latitude,omitempty"`
	LastLongitude    *float64   `json:"last_longitude,omitempty"`
	LastSeenAt       *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u *User) IsAuthority() bool {
	return u != nil && u.Role == RoleAuthority
}
