package analysis

import (
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"math"
	"time"
)

// PriorityScore converts a complaint into an urgency score in [0, 100].
// Resolved complaints always score 0.
func PriorityScore(c models.Complaint, now time.Time) int {
	if c.IsResolved() {
		return 0
	}

	baseScore := CategoryWeight(c.Category)*config.CategoryMultiplier + HazardScore(c.Severity)
	crowdScore := len(c.Supporters) * config.CrowdWeight
	stalenessScore := stalenessScore(c.CreatedAt, now)

	raw := float64(baseScore + crowdScore + stalenessScore)
	score := int(math.Round(math.Min(config.MaxPriorityScore, raw)))
	if score < 0 {
		return 0
	}
	return score
}

// stalenessScore awards points per full day of age. A missing or future
// creation time counts as zero age.
func stalenessScore(createdAt *time.Time, now time.Time) int {
	if createdAt == nil {
		return 0
	}
	age := now.Sub(*createdAt)
	if age <= 0 {
		return 0
	}
	return int(age/config.StalenessPeriod) * config.StalenessPoints
}

// ScoreAll fills PriorityScore on every complaint in place.
func ScoreAll(complaints []models.Complaint, now time.Time) {
	for i := range complaints {
		complaints[i].PriorityScore = PriorityScore(complaints[i], now)
	}
}
