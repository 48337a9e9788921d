package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/config"
	"github.com/shenikar/tourist_safety_system/internal/realtime"
	"github.com/shenikar/tourist_safety_system/internal/service"
	"github.com/sirupsen/logrus"
)

// Services - зависимости обработчиков
type Services struct {
	Alerts    service.AlertService
	Queries   service.AlertQueryService
	GeoFences service.GeoFenceService
	Tracker   service.LocationTracker
	Users     service.UserDirectory
}

// WSServer обслуживает WebSocket-соединение; реализуется realtime.Hub
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, handler realtime.ClientHandler)
}

type Handler struct {
	alertService    service.AlertService
	queryService    service.AlertQueryService
	geofenceService service.GeoFenceService
	tracker         service.LocationTracker
	users           service.UserDirectory
	ws              WSServer
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

// NewHandler; ws может быть nil, тогда маршрут /ws не регистрируется
func NewHandler(svc Services, ws WSServer, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		alertService:    svc.Alerts,
		queryService:    svc.Queries,
		geofenceService: svc.GeoFences,
		tracker:         svc.Tracker,
		users:           svc.Users,
		ws:              ws,
		logger:          logger,
		validate:        newValidator(),
		cfg:             cfg,
	}
}

// bindJSON разбирает и валидирует тело запроса
func (h *Handler) bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation(apperror.ReasonInvalidRequest, "invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// bindStrictJSON - как bindJSON, но поля вне DTO считаются ошибкой
func (h *Handler) bindStrictJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apperror.Validation(apperror.ReasonInvalidRequest, "invalid request body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Validation(apperror.ReasonInvalidRequest, "invalid request body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func parseID(c *gin.Context, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation(apperror.ReasonInvalidRequest, "invalid %s ID", what).WithField("id", "must be a UUID")
	}
	return id, nil
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} Response "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{"status": "ok"})
}
