package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
)

// @Summary Raise a manual alert
// @Description Tourist raises an alert at their position. Priority is assigned from the category.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param alert body CreateAlertRequest true "Alert creation request"
// @Success 201 {object} Response{data=AlertResponse}
// @Failure 400 {object} Response "Validation error"
// @Failure 403 {object} Response "Caller is not a tourist"
// @Failure 503 {object} Response "Storage unavailable"
// @Router /alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	actor := actorFrom(c)
	log := h.logger.WithField("method", "createAlert").WithField("user_id", actor.ID)

	var input CreateAlertRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}

	in, err := DTOToNewAlert(actor.ID, input)
	if err != nil {
		respondError(c, log, err)
		return
	}

	alert, err := h.alertService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusCreated, "alert created", ModelToAlertResponse(alert))
}

// @Summary List own alerts
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} Response{data=[]AlertResponse}
// @Router /alerts/mine [get]
func (h *Handler) listMyAlerts(c *gin.Context) {
	actor := actorFrom(c)
	log := h.logger.WithField("method", "listMyAlerts").WithField("user_id", actor.ID)

	alerts, err := h.queryService.ListByUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelsToAlertResponses(alerts))
}

// @Summary List active alerts
// @Description Filters are combined with AND.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param category query string false "panic, medical, crime, lost"
// @Param priority query string false "low, medium, high, critical"
// @Param user_id query string false "Reporter ID"
// @Param since query string false "RFC3339 lower bound on creation time"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} Response{data=[]AlertResponse}
// @Failure 400 {object} Response "Invalid filter"
// @Failure 403 {object} Response "Caller is not an authority"
// @Router /alerts/active [get]
func (h *Handler) listActiveAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listActiveAlerts")

	filter, err := parseAlertFilter(c)
	if err != nil {
		respondError(c, log, err)
		return
	}

	alerts, err := h.queryService.ListActive(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelsToAlertResponses(alerts))
}

// @Summary Active alerts near a point
// @Description Ordered by great-circle distance, nearest first.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius_km query number true "Radius in kilometres"
// @Success 200 {object} Response{data=[]AlertResponse}
// @Failure 400 {object} Response "Invalid coordinate or radius"
// @Router /alerts/nearby [get]
func (h *Handler) listNearbyAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listNearbyAlerts")

	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondError(c, log, apperror.Validation(apperror.ReasonInvalidCoordinate, "lat and lng query parameters are required"))
		return
	}
	radius, err := strconv.ParseFloat(c.Query("radius_km"), 64)
	if err != nil {
		respondError(c, log, apperror.Validation(apperror.ReasonInvalidRequest, "radius_km query parameter is required").
			WithField("radius_km", "must be a number"))
		return
	}

	found, err := h.queryService.ListByRadius(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", DistancesToAlertResponses(found))
}

// @Summary Alert statistics
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param window_days query int false "Window in days"
// @Success 200 {object} Response{data=StatsResponse}
// @Router /alerts/stats [get]
func (h *Handler) getAlertStats(c *gin.Context) {
	log := h.logger.WithField("method", "getAlertStats")

	window := 0
	if raw := c.Query("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, log, apperror.Validation(apperror.ReasonInvalidRequest, "window_days must be an integer"))
			return
		}
		window = n
	}

	stats, err := h.queryService.AggregateStats(c.Request.Context(), window)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelToStatsResponse(stats))
}

// @Summary Get alert by ID
// @Description Visible to the reporter and to any authority.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Alert ID"
// @Success 200 {object} Response{data=AlertResponse}
// @Failure 403 {object} Response "Not the reporter"
// @Failure 404 {object} Response "Alert not found"
// @Router /alerts/{id} [get]
func (h *Handler) getAlert(c *gin.Context) {
	log := h.logger.WithField("method", "getAlert")

	id, err := parseID(c, "alert")
	if err != nil {
		respondError(c, log, err)
		return
	}

	alert, err := h.queryService.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, log.WithField("alert_id", id), err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelToAlertResponse(alert))
}

// @Summary Update alert fields
// @Description Only location, latitude, longitude, description, priority and status may be changed.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param id path string true "Alert ID"
// @Param update body UpdateAlertRequest true "Fields to change"
// @Success 200 {object} Response{data=AlertResponse}
// @Failure 400 {object} Response "Unknown field or invalid value"
// @Failure 409 {object} Response "Alert is closed"
// @Router /alerts/{id} [patch]
func (h *Handler) updateAlert(c *gin.Context) {
	log := h.logger.WithField("method", "updateAlert")

	id, err := parseID(c, "alert")
	if err != nil {
		respondError(c, log, err)
		return
	}
	log = log.WithField("alert_id", id)

	var input UpdateAlertRequest
	if err := h.bindStrictJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}
	update, err := DTOToAlertUpdate(input)
	if err != nil {
		respondError(c, log, err)
		return
	}

	alert, err := h.alertService.UpdateFields(c.Request.Context(), id, actorFrom(c), update)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "alert updated", ModelToAlertResponse(alert))
}

// @Summary Close an alert
// @Description resolved records the resolver; false_alarm closes without resolution.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param id path string true "Alert ID"
// @Param status body UpdateStatusRequest true "Target status"
// @Success 200 {object} Response{data=AlertResponse}
// @Failure 409 {object} Response "Alert is not active"
// @Router /alerts/{id}/status [patch]
func (h *Handler) updateAlertStatus(c *gin.Context) {
	log := h.logger.WithField("method", "updateAlertStatus")

	id, err := parseID(c, "alert")
	if err != nil {
		respondError(c, log, err)
		return
	}
	log = log.WithField("alert_id", id)

	var input UpdateStatusRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}

	var alert *models.Alert
	switch models.AlertStatus(input.Status) {
	case models.StatusResolved:
		alert, err = h.alertService.Resolve(c.Request.Context(), id, actorFrom(c))
	default:
		status := models.StatusFalseAlarm
		alert, err = h.alertService.UpdateFields(c.Request.Context(), id, actorFrom(c), models.AlertUpdate{Status: &status})
	}
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "alert status updated", ModelToAlertResponse(alert))
}

// @Summary Change alert priority
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param id path string true "Alert ID"
// @Param priority body EscalateRequest true "New priority"
// @Success 200 {object} Response{data=AlertResponse}
// @Failure 409 {object} Response "Alert is not active"
// @Router /alerts/{id}/priority [patch]
func (h *Handler) escalateAlert(c *gin.Context) {
	log := h.logger.WithField("method", "escalateAlert")

	id, err := parseID(c, "alert")
	if err != nil {
		respondError(c, log, err)
		return
	}
	log = log.WithField("alert_id", id)

	var input EscalateRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}
	priority, err := models.ParsePriority(input.Priority)
	if err != nil {
		respondError(c, log, err)
		return
	}

	alert, err := h.alertService.Escalate(c.Request.Context(), id, actorFrom(c), priority)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "alert priority updated", ModelToAlertResponse(alert))
}

// @Summary Cancel own alert
// @Description Only the reporter may cancel, and only while the alert is active.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Alert ID"
// @Success 200 {object} Response{data=AlertResponse}
// @Failure 403 {object} Response "Not the reporter"
// @Failure 409 {object} Response "Alert is not active"
// @Router /alerts/{id}/cancel [post]
func (h *Handler) cancelAlert(c *gin.Context) {
	log := h.logger.WithField("method", "cancelAlert")

	id, err := parseID(c, "alert")
	if err != nil {
		respondError(c, log, err)
		return
	}

	alert, err := h.alertService.MarkFalseAlarm(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, log.WithField("alert_id", id), err)
		return
	}
	respond(c, http.StatusOK, "alert cancelled", ModelToAlertResponse(alert))
}

func parseAlertFilter(c *gin.Context) (models.AlertFilter, error) {
	var filter models.AlertFilter

	if raw := c.Query("category"); raw != "" {
		cat, err := models.ParseAlertCategory(raw)
		if err != nil {
			return filter, err
		}
		filter.Category = &cat
	}
	if raw := c.Query("priority"); raw != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return filter, err
		}
		filter.Priority = &p
	}
	filter.UserID = c.Query("user_id")
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperror.Validation(apperror.ReasonInvalidRequest, "since must be RFC3339").WithField("since", err.Error())
		}
		filter.Since = &since
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, apperror.Validation(apperror.ReasonInvalidRequest, "%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return filter, nil
}
