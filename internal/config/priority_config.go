package config

import "time"

const (
	// Priority score
	CategoryMultiplier = 5
	CrowdWeight        = 5 // points per supporter
	StalenessPoints    = 2 // points per full day of age
	StalenessPeriod    = 24 * time.Hour
	MaxPriorityScore   = 100

	// OthersCategory is the fallback weight key for unrecognized categories.
	OthersCategory = "others"

	// Heatmap
	DefaultHeatmapResolution = 8
	MaxHeatmapResolution     = 15

	// Export
	ExportURLExpiry = 15 * time.Minute
)

// CategoryWeights is keyed by lower-cased category name.
var CategoryWeights = map[string]int{
	"water supply":       5,
	"sanitation":         4,
	"lighting":           3,
	"street maintenance": 2,
	// the citizen app shipped with this spelling
	"street maintance":   2,
	OthersCategory:       1,
}

// SeverityWeights is the hazard score per severity.
var SeverityWeights = map[string]int{
	"high":   30,
	"medium": 15,
	"low":    5,
}
