package handler

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileResponse struct {
	User       *models.User             `json:"user"`
	Resolution analysis.ResolutionStats `json:"resolution"`
}

// GetProfile returns the caller with their own resolution summary.
func (h *Handler) GetProfile(c *gin.Context) {
	user := currentUser(c)
	summary, err := h.Dashboard.ResolutionSummary(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{User: user, Resolution: summary})
}

// UpdateProfile changes the editable fields. Email and role are not accepted.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input models.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.Users.UpdateUserProfile(c.Request.Context(), currentUser(c).ID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
