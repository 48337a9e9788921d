package v1

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/sirupsen/logrus"
)

// Response - единый конверт всех ответов API
// @Description Единый конверт ответа
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    any               `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// statusFor отображает тип доменной ошибки на HTTP-статус
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку в конверт; 5xx не раскрывают внутренние детали
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)
	resp := Response{Success: false, Reason: apperror.ReasonOf(err)}

	switch kind {
	case apperror.KindInternal:
		log.WithError(err).Error("Request failed")
		resp.Message = "internal server error"
	case apperror.KindTransient:
		log.WithError(err).Error("Request failed on transient error")
		resp.Message = "service temporarily unavailable"
	default:
		log.WithError(err).Warn("Request rejected")
		e, _ := apperror.As(err)
		resp.Message = e.Message
		resp.Fields = e.Fields
	}
	c.AbortWithStatusJSON(status, resp)
}

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках используем имена полей из JSON
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError переводит ошибки validator в доменную ошибку с описанием полей
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(apperror.ReasonInvalidRequest, "invalid request body")
	}

	reason := apperror.ReasonInvalidRequest
	out := apperror.Validation(reason, "validation failed")
	for _, fe := range verrs {
		if fe.Tag() == "latitude" || fe.Tag() == "longitude" {
			reason = apperror.ReasonInvalidCoordinate
		}
		out = out.WithField(fe.Field(), "failed on '"+fe.Tag()+"'")
	}
	out.Reason = reason
	return out
}
