package models

import (
	"github.com/shenikar/tourist_safety_system/internal/apperror"
)

type Role string

const (
	RoleTourist   Role = "tourist"
	RoleAuthority Role = "authority"
)

func (r Role) Valid() bool {
	return r == RoleTourist || r == RoleAuthority
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusEmergency UserStatus = "emergency"
)

type ZoneCategory string

const (
	ZoneSafe        ZoneCategory = "safe_zone"
	ZoneRestricted  ZoneCategory = "restricted_zone"
	ZoneTouristArea ZoneCategory = "tourist_area"
)

func (z ZoneCategory) Valid() bool {
	switch z {
	case ZoneSafe, ZoneRestricted, ZoneTouristArea:
		return true
	}
	return false
}

// ParseZoneCategory - единственная точка проверки категории зоны на входе
func ParseZoneCategory(s string) (ZoneCategory, error) {
	z := ZoneCategory(s)
	if !z.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidZoneCategory, "unknown zone category %q", s).
			WithField("category", "must be one of safe_zone, restricted_zone, tourist_area")
	}
	return z, nil
}

type AlertCategory string

const (
	CategoryPanic   AlertCategory = "panic"
	CategoryMedical AlertCategory = "medical"
	CategoryCrime   AlertCategory = "crime"
	CategoryLost    AlertCategory = "lost"
)

// AlertCategories перечисляет все категории в стабильном порядке
var AlertCategories = []AlertCategory{CategoryPanic, CategoryMedical, CategoryCrime, CategoryLost}

func (c AlertCategory) Valid() bool {
	switch c {
	case CategoryPanic, CategoryMedical, CategoryCrime, CategoryLost:
		return true
	}
	return false
}

func ParseAlertCategory(s string) (AlertCategory, error) {
	c := AlertCategory(s)
	if !c.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidCategory, "unknown alert category %q", s).
			WithField("category", "must be one of panic, medical, crime, lost")
	}
	return c, nil
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidPriority, "unknown priority %q", s).
			WithField("priority", "must be one of low, medium, high, critical")
	}
	return p, nil
}

type AlertStatus string

const (
	StatusActive     AlertStatus = "active"
	StatusResolved   AlertStatus = "resolved"
	StatusFalseAlarm AlertStatus = "false_alarm"
)

var AlertStatuses = []AlertStatus{StatusActive, StatusResolved, StatusFalseAlarm}

func (s AlertStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusFalseAlarm:
		return true
	}
	return false
}

// Terminal - из resolved и false_alarm переходов нет
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusFalseAlarm
}

// CanTransitionTo описывает автомат состояний: active -> resolved | false_alarm
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	return s == StatusActive && next.Terminal()
}

func ParseAlertStatus(s string) (AlertStatus, error) {
	st := AlertStatus(s)
	if !st.Valid() {
		return "", apperror.Validation(apperror.ReasonInvalidStatus, "unknown alert status %q", s).
			WithField("status", "must be one of active, resolved, false_alarm")
	}
	return st, nil
}
