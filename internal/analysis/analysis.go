// Package analysis derives dashboard views from complaint, user and post snapshots.
// Everything here is a pure function of its inputs; callers pass the clock in.
package analysis

import (
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"strings"
)

// CategoryWeight returns the urgency weight for a category.
// Lookup is case-insensitive; unrecognized categories get the "others" weight.
func CategoryWeight(category string) int {
	if w, ok := config.CategoryWeights[strings.ToLower(strings.TrimSpace(category))]; ok {
		return w
	}
	return config.CategoryWeights[config.OthersCategory]
}

// HazardScore returns the severity contribution to the priority score.
// It returns 0 if the severity is not recognized.
func HazardScore(severity models.Severity) int {
	return config.SeverityWeights[string(severity)]
}
