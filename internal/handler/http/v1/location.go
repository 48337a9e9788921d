package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
)

// @Summary Report a location sample
// @Description Stores the sample, checks geofences and raises an automatic alert on restricted-zone entry.
// @Tags Location
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (tourist)"
// @Param location body PointRequest true "Location sample"
// @Success 201 {object} Response{data=LocationResponse}
// @Failure 400 {object} Response "Invalid coordinate"
// @Failure 429 {object} Response "Rate limit exceeded"
// @Failure 503 {object} Response "Storage unavailable"
// @Router /location [post]
func (h *Handler) reportLocation(c *gin.Context) {
	actor := actorFrom(c)
	log := h.logger.WithField("method", "reportLocation").WithField("user_id", actor.ID)

	var input PointRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}

	result, err := h.tracker.Ingest(c.Request.Context(), actor.ID, *input.Latitude, *input.Longitude, input.Accuracy)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusCreated, "location recorded", ModelToLocationResponse(result))
}

// @Summary Own location history
// @Tags Location
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (tourist)"
// @Param limit query int false "Number of samples" default(100)
// @Success 200 {object} Response{data=[]models.LocationSample}
// @Router /location/history [get]
func (h *Handler) locationHistory(c *gin.Context) {
	actor := actorFrom(c)
	log := h.logger.WithField("method", "locationHistory").WithField("user_id", actor.ID)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, log, apperror.Validation(apperror.ReasonInvalidRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	samples, err := h.tracker.ListHistory(c.Request.Context(), actor.ID, limit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", samples)
}
