package v1

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/apperror"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/shenikar/tourist_safety_system/internal/realtime"
	"github.com/shenikar/tourist_safety_system/internal/service"
)

// wsHandler исполняет кадры клиента через те же сервисы, что и HTTP
type wsHandler struct {
	h *Handler
}

var _ realtime.ClientHandler = (*wsHandler)(nil)

// @Summary Real-time channel
// @Description WebSocket. Send {"type":"join","data":{"role":"tourist","user_id":"..."}} first.
// @Tags Realtime
// @Security ApiKeyAuth
// @Success 101 "Switching Protocols"
// @Router /ws [get]
func (h *Handler) serveWS(c *gin.Context) {
	h.ws.ServeWS(c.Writer, c.Request, &wsHandler{h: h})
}

// Join сверяет заявленную роль с каталогом пользователей
func (w *wsHandler) Join(ctx context.Context, req realtime.JoinRequest) (*models.User, error) {
	if req.UserID == "" || !req.Role.Valid() {
		return nil, apperror.Validation(apperror.ReasonInvalidRequest, "join requires role and user_id")
	}

	user, err := w.h.users.GetUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.ReasonUserNotFound, "user %s not found", req.UserID)
		}
		return nil, err
	}
	if user.Role != req.Role {
		return nil, apperror.Forbidden("declared role does not match user")
	}
	return user, nil
}

func (w *wsHandler) PanicAlert(ctx context.Context, user *models.User, data json.RawMessage) (any, error) {
	if user.Role != models.RoleTourist {
		return nil, apperror.Forbidden("only tourists can raise alerts")
	}

	var frame PanicAlertFrame
	if err := w.decode(data, &frame); err != nil {
		return nil, err
	}

	in, err := DTOToNewAlert(user.ID, CreateAlertRequest{
		Category:    frame.Category,
		Location:    frame.Location,
		Latitude:    frame.Latitude,
		Longitude:   frame.Longitude,
		Description: frame.Description,
	})
	if err != nil {
		return nil, err
	}

	alert, err := w.h.alertService.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return ModelToAlertResponse(alert), nil
}

func (w *wsHandler) LocationUpdate(ctx context.Context, user *models.User, data json.RawMessage) (any, error) {
	if user.Role != models.RoleTourist {
		return nil, apperror.Forbidden("only tourists report locations")
	}

	var point PointRequest
	if err := w.decode(data, &point); err != nil {
		return nil, err
	}

	result, err := w.h.tracker.Ingest(ctx, user.ID, *point.Latitude, *point.Longitude, point.Accuracy)
	if err != nil {
		return nil, err
	}
	return ModelToLocationResponse(result), nil
}

func (w *wsHandler) decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return apperror.Validation(apperror.ReasonInvalidRequest, "frame data is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperror.Validation(apperror.ReasonInvalidRequest, "invalid frame data")
	}
	if err := w.h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}
