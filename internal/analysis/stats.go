package analysis

import "civicdesk/backend/internal/models"

// UncategorizedLabel is the breakdown name for complaints without a category.
const UncategorizedLabel = "Other"

// NamedCount is one bar of a breakdown chart.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryOverview is one row of the assignment panel.
type CategoryOverview struct {
	Category     string `json:"category"`
	Complaints   int    `json:"complaints"`
	KingID       string `json:"kingId,omitempty"`
	KingEmail    string `json:"kingEmail,omitempty"`
	KingUsername string `json:"kingUsername,omitempty"`
}

// DashboardStats is the headline view of a complaint snapshot.
type DashboardStats struct {
	Total       int `json:"totalComplaints"`
	Open        int `json:"openComplaints"`
	InProgress  int `json:"inProgress"`
	Resolved    int `json:"resolved"`
	Critical    int `json:"criticalCount"`
	AvgPriority int `json:"averagePriority"`

	ByCategory []NamedCount       `json:"byCategory"`
	ByStatus   []NamedCount       `json:"byStatus"`
	Categories []CategoryOverview `json:"categories"`
}

// Summarize aggregates complaints into dashboard counters. Priority scores
// must already be filled in. assignments maps category to king id.
func Summarize(complaints []models.Complaint, assignments map[string]string, kings []models.User) DashboardStats {
	stats := DashboardStats{Total: len(complaints)}

	categoryIdx := make(map[string]int)
	var uniqueCategories []string
	seen := make(map[string]bool)
	perCategory := make(map[string]int)
	prioritySum := 0

	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			stats.Open++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		}
		if c.Severity == models.SeverityHigh {
			stats.Critical++
		}
		prioritySum += c.PriorityScore

		name := c.Category
		if name == "" {
			name = UncategorizedLabel
		} else if !seen[name] {
			seen[name] = true
			uniqueCategories = append(uniqueCategories, name)
		}
		perCategory[c.Category]++

		if i, ok := categoryIdx[name]; ok {
			stats.ByCategory[i].Count++
		} else {
			categoryIdx[name] = len(stats.ByCategory)
			stats.ByCategory = append(stats.ByCategory, NamedCount{Name: name, Count: 1})
		}
	}

	if stats.Total > 0 {
		stats.AvgPriority = int(float64(prioritySum)/float64(stats.Total) + 0.5)
	}

	for _, nc := range []NamedCount{
		{Name: "Pending", Count: stats.Open},
		{Name: "In Progress", Count: stats.InProgress},
		{Name: "Resolved", Count: stats.Resolved},
	} {
		if nc.Count > 0 {
			stats.ByStatus = append(stats.ByStatus, nc)
		}
	}

	kingsByID := make(map[string]models.User, len(kings))
	for _, k := range kings {
		kingsByID[k.ID] = k
	}
	for _, category := range uniqueCategories {
		row := CategoryOverview{Category: category, Complaints: perCategory[category]}
		if id, ok := assignments[category]; ok {
			row.KingID = id
			if k, ok := kingsByID[id]; ok {
				row.KingEmail = k.Email
				row.KingUsername = k.Username
			}
		}
		stats.Categories = append(stats.Categories, row)
	}

	return stats
}
