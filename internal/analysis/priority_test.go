package analysis_test

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/models"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func supporters(n int) pq.StringArray {
	out := make(pq.StringArray, n)
	for i := range out {
		out[i] = fmt.Sprintf("citizen-%d", i)
	}
	return out
}

func TestPriorityScore_Examples(t *testing.T) {
	tests := []struct {
		name      string
		complaint models.Complaint
		want      int
	}{
		{
			name:      "water supply high fresh",
			complaint: models.Complaint{Category: "water supply", Severity: models.SeverityHigh, Status: models.StatusPending, CreatedAt: at(0)},
			want:      55,
		},
		{
			name:      "ten supporters clamps to 100",
			complaint: models.Complaint{Category: "water supply", Severity: models.SeverityHigh, Status: models.StatusPending, CreatedAt: at(0), Supporters: supporters(10)},
			want:      100,
		},
		{
			name:      "lowest everything",
			complaint: models.Complaint{Category: "others", Severity: models.SeverityLow, Status: models.StatusPending, CreatedAt: at(0)},
			want:      10,
		},
		{
			name:      "unknown category falls back to others",
			complaint: models.Complaint{Category: "noise", Severity: models.SeverityLow, Status: models.StatusPending},
			want:      10,
		},
		{
			name:      "category lookup ignores case",
			complaint: models.Complaint{Category: "Sanitation", Severity: models.SeverityMedium, Status: models.StatusAcknowledged},
			want:      4*5 + 15,
		},
		{
			name:      "unknown severity scores no hazard",
			complaint: models.Complaint{Category: "lighting", Severity: "Critical", Status: models.StatusInProgress},
			want:      15,
		},
		{
			name:      "resolved is zero",
			complaint: models.Complaint{Category: "water supply", Severity: models.SeverityHigh, Status: models.StatusResolved, Supporters: supporters(3), CreatedAt: at(240 * time.Hour)},
			want:      0,
		},
		{
			name:      "missing createdAt is zero age",
			complaint: models.Complaint{Category: "street maintenance", Severity: models.SeverityMedium, Status: models.StatusNotBMC},
			want:      2*5 + 15,
		},
		{
			name:      "future createdAt is zero age",
			complaint: models.Complaint{Category: "others", Severity: models.SeverityLow, Status: models.StatusPending, CreatedAt: at(-72 * time.Hour)},
			want:      10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analysis.PriorityScore(tt.complaint, now))
		})
	}
}

func TestPriorityScore_Staleness(t *testing.T) {
	base := models.Complaint{Category: "others", Severity: models.SeverityLow, Status: models.StatusPending}

	tests := []struct {
		age  time.Duration
		want int
	}{
		{age: 0, want: 10},
		{age: 23*time.Hour + 59*time.Minute, want: 10},
		{age: 24 * time.Hour, want: 12},
		{age: 47*time.Hour + 59*time.Minute, want: 12},
		{age: 48 * time.Hour, want: 14},
		{age: 60 * 24 * time.Hour, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.age.String(), func(t *testing.T) {
			c := base
			c.CreatedAt = at(tt.age)
			assert.Equal(t, tt.want, analysis.PriorityScore(c, now))
		})
	}
}

func TestPriorityScore_Properties(t *testing.T) {
	categories := []string{"water supply", "sanitation", "lighting", "street maintenance", "others", "unknown"}
	severities := []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh}
	ages := []time.Duration{0, 24 * time.Hour, 48 * time.Hour, 30 * 24 * time.Hour}

	for _, category := range categories {
		for _, age := range ages {
			for n := 0; n <= 12; n++ {
				prev := -1
				for _, severity := range severities {
					c := models.Complaint{Category: category, Severity: severity, Status: models.StatusPending, CreatedAt: at(age), Supporters: supporters(n)}
					score := analysis.PriorityScore(c, now)

					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
					assert.GreaterOrEqual(t, score, prev, "severity must be monotone")
					prev = score

					more := c
					more.Supporters = supporters(n + 1)
					assert.GreaterOrEqual(t, analysis.PriorityScore(more, now), score, "supporters must be monotone")

					resolved := c
					resolved.Status = models.StatusResolved
					assert.Zero(t, analysis.PriorityScore(resolved, now))
				}
			}
		}
	}
}

func TestPriorityScore_StalenessMonotone(t *testing.T) {
	c := models.Complaint{Category: "lighting", Severity: models.SeverityMedium, Status: models.StatusPending}

	c.CreatedAt = at(0)
	fresh := analysis.PriorityScore(c, now)
	c.CreatedAt = at(24 * time.Hour)
	day := analysis.PriorityScore(c, now)
	c.CreatedAt = at(48 * time.Hour)
	twoDays := analysis.PriorityScore(c, now)

	assert.GreaterOrEqual(t, twoDays, day)
	assert.GreaterOrEqual(t, day, fresh)
}

func TestScoreAll(t *testing.T) {
	list := []models.Complaint{
		{ID: "a", Category: "water supply", Severity: models.SeverityHigh, Status: models.StatusPending, CreatedAt: at(0)},
		{ID: "b", Category: "water supply", Severity: models.SeverityHigh, Status: models.StatusResolved},
	}

	analysis.ScoreAll(list, now)

	assert.Equal(t, 55, list[0].PriorityScore)
	assert.Equal(t, 0, list[1].PriorityScore)
}

func TestCategoryWeight(t *testing.T) {
	assert.Equal(t, 5, analysis.CategoryWeight("WATER SUPPLY"))
	assert.Equal(t, 2, analysis.CategoryWeight("street maintance"))
	assert.Equal(t, 1, analysis.CategoryWeight(""))
	assert.Equal(t, 0, analysis.HazardScore("HIGH"))
	assert.Equal(t, 30, analysis.HazardScore(models.SeverityHigh))
}
