package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.Dashboard.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Sentiment(c *gin.Context) {
	counts, err := h.Dashboard.SentimentCounts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"positive": counts.Positive,
		"neutral":  counts.Neutral,
		"negative": counts.Negative,
		"total":    counts.Total(),
	})
}

// Heatmap accepts an optional resolution query parameter.
func (h *Handler) Heatmap(c *gin.Context) {
	resolution := 0
	if raw := c.Query("resolution"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		resolution = n
	}

	view, err := h.Dashboard.Heatmap(c.Request.Context(), currentUser(c), resolution)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.Dashboard.Leaderboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
