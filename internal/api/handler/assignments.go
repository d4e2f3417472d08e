package handler

import (
	"civicdesk/backend/internal/assignment"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type assignRequest struct {
	KingID string `json:"kingId"`
}

func (h *Handler) Kings(c *gin.Context) {
	kings, err := h.Dashboard.Kings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kings": kings})
}

func (h *Handler) ListAssignments(c *gin.Context) {
	m, err := h.Assignments.Assignments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": m})
}

// Assign gives the category in the path to kingId. "unassigned" or an empty
// kingId frees the category.
func (h *Handler) Assign(c *gin.Context) {
	var input assignRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.Assignments.Assign(c.Request.Context(), c.Param("category"), input.KingID)
	if err != nil {
		if errors.Is(err, assignment.ErrConflict) {
			h.Metrics.Assignment("conflict")
		}
		h.respondError(c, err)
		return
	}

	outcome := "assigned"
	if result.KingID == "" {
		outcome = "unassigned"
	}
	h.Metrics.Assignment(outcome)
	c.JSON(http.StatusOK, result)
}
