package handler

import (
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type viewQuery struct {
	complaint.Criteria
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// bindView reads the filter and sort query parameters. Missing sort
// parameters fall back to priority, descending. It writes the 400 itself
// and reports false on bad input.
func (h *Handler) bindView(c *gin.Context) (complaint.View, bool) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return complaint.View{}, false
	}
	field, err := complaint.ParseSortField(q.SortBy)
	if err != nil {
		h.respondError(c, err)
		return complaint.View{}, false
	}
	order, err := complaint.ParseSortOrder(q.SortOrder)
	if err != nil {
		h.respondError(c, err)
		return complaint.View{}, false
	}
	return complaint.View{Criteria: q.Criteria, Field: field, Order: order}, true
}

func (h *Handler) ListComplaints(c *gin.Context) {
	view, ok := h.bindView(c)
	if !ok {
		return
	}

	list, err := h.Complaints.List(c.Request.Context(), currentUser(c), view)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list, "count": len(list)})
}

func (h *Handler) GetComplaint(c *gin.Context) {
	item, err := h.Complaints.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type statusRequest struct {
	Status models.ComplaintStatus `json:"status" binding:"required"`
}

// UpdateStatus moves a complaint to a new triage status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var input statusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), currentUser(c), c.Param("id"), input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Metrics.StatusChanged(string(updated.Status))
	c.JSON(http.StatusOK, updated)
}

// ExportComplaints uploads the requested view as CSV and returns a download link.
func (h *Handler) ExportComplaints(c *gin.Context) {
	view, ok := h.bindView(c)
	if !ok {
		return
	}

	url, count, err := h.Complaints.Export(c.Request.Context(), currentUser(c), view)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Metrics.Exported()
	c.JSON(http.StatusOK, gin.H{"url": url, "count": count})
}
