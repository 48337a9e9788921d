package apperror

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для транспорта (HTTP, WebSocket).
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Стабильные машиночитаемые коды причин.
const (
	ReasonInvalidCoordinate   = "invalid_coordinate"
	ReasonInvalidCategory     = "invalid_category"
	ReasonInvalidPriority     = "invalid_priority"
	ReasonInvalidStatus       = "invalid_status"
	ReasonInvalidZoneCategory = "invalid_zone_category"
	ReasonInvalidPolygon      = "invalid_polygon"
	ReasonInvalidRequest      = "invalid_request"
	ReasonUserNotFound        = "user_not_found"
	ReasonAlertNotFound       = "alert_not_found"
	ReasonFenceNotFound       = "fence_not_found"
	ReasonForbidden           = "forbidden"
	ReasonInvalidTransition   = "invalid_transition"
	ReasonTransientFailure    = "transient_failure"
	ReasonInternal            = "internal_error"
)

// Error - доменная ошибка с типом, кодом причины и деталями по полям
type Error struct {
	Kind    Kind              `json:"-"`
	Reason  string            `json:"reason"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithField возвращает копию ошибки с описанием проблемы в поле
func (e *Error) WithField(name, problem string) *Error {
	fields := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[name] = problem
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: e.Message, Fields: fields, Err: e.Err}
}

func newError(kind Kind, reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func Validation(reason, format string, args ...any) *Error {
	return newError(KindValidation, reason, format, args...)
}

func NotFound(reason, format string, args ...any) *Error {
	return newError(KindNotFound, reason, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, ReasonForbidden, format, args...)
}

func Conflict(reason, format string, args ...any) *Error {
	return newError(KindConflict, reason, format, args...)
}

// Transient оборачивает ошибку ввода-вывода, которая пережила повторную попытку
func Transient(err error, format string, args ...any) *Error {
	e := newError(KindTransient, ReasonTransientFailure, format, args...)
	e.Err = err
	return e
}

// KindOf возвращает тип первой доменной ошибки в цепочке, иначе KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf возвращает код причины, иначе internal_error
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return ReasonInternal
}

// As извлекает доменную ошибку из цепочки
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
