// Package handler implements the dashboard HTTP API on gin.
package handler

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/assignment"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/dashboard"
	"civicdesk/backend/internal/livehub"
	"civicdesk/backend/internal/metrics"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const userKey = "user"

// Handler містить посилання на сервіси дашборду
type Handler struct {
	Auth        *auth.Service
	Users       storage.UserStore
	Complaints  *complaint.Service
	Assignments *assignment.Service
	Dashboard   *dashboard.Service
	Hub         *livehub.ManagerService
	Metrics     *metrics.Collector // optional
	Upgrader    websocket.Upgrader
	Logger      *zap.Logger
}

// currentUser returns the user loaded by Authenticate.
func currentUser(c *gin.Context) *models.User {
	v, _ := c.Get(userKey)
	u, _ := v.(*models.User)
	return u
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, complaint.ErrNotFound),
		errors.Is(err, assignment.ErrKingNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, complaint.ErrForbidden),
		errors.Is(err, auth.ErrRoleNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, assignment.ErrConflict),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, complaint.ErrInvalidStatus),
		errors.Is(err, complaint.ErrUnknownSortField),
		errors.Is(err, complaint.ErrInvalidSortOrder),
		errors.Is(err, assignment.ErrNoCategory),
		errors.Is(err, analysis.ErrInvalidResolution),
		errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, complaint.ErrNoExporter):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Internal failures are logged and hidden.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	clients := 0
	if h.Hub != nil {
		clients = h.Hub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": clients})
}
