package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
)

// @Summary Create a geofence
// @Tags GeoFences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param fence body GeoFenceRequest true "Fence definition"
// @Success 201 {object} Response{data=GeoFenceResponse}
// @Failure 400 {object} Response "Invalid polygon or category"
// @Router /geofences [post]
func (h *Handler) createGeoFence(c *gin.Context) {
	log := h.logger.WithField("method", "createGeoFence")

	var input GeoFenceRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}
	fence, err := DTOToGeoFenceModel(input)
	if err != nil {
		respondError(c, log, err)
		return
	}

	created, err := h.geofenceService.Create(c.Request.Context(), actorFrom(c), fence)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusCreated, "geofence created", ModelToGeoFenceResponse(created))
}

// @Summary List geofences
// @Tags GeoFences
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param category query string false "safe_zone, restricted_zone, tourist_area"
// @Param active query bool false "Only active or inactive fences"
// @Success 200 {object} Response{data=[]GeoFenceResponse}
// @Router /geofences [get]
func (h *Handler) listGeoFences(c *gin.Context) {
	log := h.logger.WithField("method", "listGeoFences")

	var filter models.GeoFenceFilter
	if raw := c.Query("category"); raw != "" {
		cat, err := models.ParseZoneCategory(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		filter.Category = &cat
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, log, apperror.Validation(apperror.ReasonInvalidRequest, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}

	fences, err := h.geofenceService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelsToGeoFenceResponses(fences))
}

// @Summary Get geofence by ID
// @Tags GeoFences
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Fence ID"
// @Success 200 {object} Response{data=GeoFenceResponse}
// @Failure 404 {object} Response "Fence not found"
// @Router /geofences/{id} [get]
func (h *Handler) getGeoFence(c *gin.Context) {
	log := h.logger.WithField("method", "getGeoFence")

	id, err := parseID(c, "geofence")
	if err != nil {
		respondError(c, log, err)
		return
	}

	fence, err := h.geofenceService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, log.WithField("fence_id", id), err)
		return
	}
	respond(c, http.StatusOK, "ok", ModelToGeoFenceResponse(fence))
}

// @Summary Replace a geofence
// @Tags GeoFences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param id path string true "Fence ID"
// @Param fence body GeoFenceRequest true "Fence definition"
// @Success 200 {object} Response{data=GeoFenceResponse}
// @Failure 404 {object} Response "Fence not found"
// @Router /geofences/{id} [put]
func (h *Handler) updateGeoFence(c *gin.Context) {
	log := h.logger.WithField("method", "updateGeoFence")

	id, err := parseID(c, "geofence")
	if err != nil {
		respondError(c, log, err)
		return
	}
	log = log.WithField("fence_id", id)

	var input GeoFenceRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}
	fence, err := DTOToGeoFenceModel(input)
	if err != nil {
		respondError(c, log, err)
		return
	}
	fence.ID = id

	updated, err := h.geofenceService.Update(c.Request.Context(), actorFrom(c), fence)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "geofence updated", ModelToGeoFenceResponse(updated))
}

// @Summary Delete a geofence
// @Tags GeoFences
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID (authority)"
// @Param id path string true "Fence ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response "Fence not found"
// @Router /geofences/{id} [delete]
func (h *Handler) deleteGeoFence(c *gin.Context) {
	log := h.logger.WithField("method", "deleteGeoFence")

	id, err := parseID(c, "geofence")
	if err != nil {
		respondError(c, log, err)
		return
	}

	if err := h.geofenceService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, log.WithField("fence_id", id), err)
		return
	}
	respond(c, http.StatusOK, "geofence deleted", nil)
}

// @Summary Check a point against geofences
// @Description Returns matched active zones. For a tourist caller the point is also recorded as a location sample.
// @Tags GeoFences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param X-User-ID header string true "Caller user ID"
// @Param point body PointRequest true "Point to check"
// @Success 200 {object} Response{data=CheckPointResponse}
// @Failure 400 {object} Response "Invalid coordinate"
// @Failure 429 {object} Response "Rate limit exceeded"
// @Router /geofences/check [post]
func (h *Handler) checkPoint(c *gin.Context) {
	actor := actorFrom(c)
	log := h.logger.WithField("method", "checkPoint").WithField("user_id", actor.ID)

	var input PointRequest
	if err := h.bindJSON(c, &input); err != nil {
		respondError(c, log, err)
		return
	}

	if actor.Role == models.RoleTourist {
		result, err := h.tracker.Ingest(c.Request.Context(), actor.ID, *input.Latitude, *input.Longitude, input.Accuracy)
		if err != nil {
			respondError(c, log, err)
			return
		}
		respond(c, http.StatusOK, "ok", &CheckPointResponse{
			Matches:    result.Matches,
			Alerts:     ModelsToAlertResponses(result.Alerts),
			Suppressed: result.Suppressed,
		})
		return
	}

	matches, err := h.geofenceService.CheckPoint(c.Request.Context(), *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respond(c, http.StatusOK, "ok", &CheckPointResponse{Matches: matches})
}
