package analysis

import (
	"civicdesk/backend/internal/models"
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ResolutionStats summarizes the resolved complaints attributed to one user.
type ResolutionStats struct {
	// ResolvedCount counts every resolved complaint attributed to the user.
	ResolvedCount int `json:"resolvedCount"`
	// TimedCount counts the ones carrying both createdAt and resolvedAt.
	TimedCount int `json:"timedCount"`
	// AverageResolution is the mean of resolvedAt-createdAt over the timed
	// complaints, nil when there are none.
	AverageResolution *time.Duration `json:"-"`
	AverageMillis     *int64         `json:"avgResolutionMs"`
	AverageDisplay    string         `json:"avgResolutionTime"`
}

// Scored reports whether the stats carry a usable average. A negative
// average, from resolvedAt before createdAt, still ranks.
func (s ResolutionStats) Scored() bool {
	return s.AverageResolution != nil && *s.AverageResolution != 0
}

// LeaderboardEntry is one ranked king.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	KingID   string `json:"kingId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	ResolutionStats
}

// Leaderboard ranks kings by average resolution time, fastest first.
// Kings without a positive average keep their input order after the ranked ones.
func Leaderboard(resolved []models.Complaint, kings []models.User) []LeaderboardEntry {
	byResolver := make(map[string][]models.Complaint)
	for _, c := range resolved {
		if !c.IsResolved() || c.ResolvedBy == "" {
			continue
		}
		byResolver[c.ResolvedBy] = append(byResolver[c.ResolvedBy], c)
	}

	entries := make([]LeaderboardEntry, 0, len(kings))
	for _, king := range kings {
		if !king.IsKing() {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			KingID:          king.ID,
			Username:        king.Username,
			Email:           king.Email,
			ResolutionStats: resolutionStats(byResolver[king.ID]),
		})
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		switch {
		case a.Scored() && b.Scored():
			return cmp.Compare(*a.AverageResolution, *b.AverageResolution)
		case a.Scored():
			return -1
		case b.Scored():
			return 1
		}
		return 0
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ResolutionSummary computes the stats of a single resolver.
func ResolutionSummary(complaints []models.Complaint, resolverID string) ResolutionStats {
	var theirs []models.Complaint
	for _, c := range complaints {
		if c.IsResolved() && c.ResolvedBy == resolverID {
			theirs = append(theirs, c)
		}
	}
	return resolutionStats(theirs)
}

func resolutionStats(complaints []models.Complaint) ResolutionStats {
	stats := ResolutionStats{ResolvedCount: len(complaints)}

	var total time.Duration
	for _, c := range complaints {
		if c.CreatedAt == nil || c.ResolvedAt == nil {
			continue
		}
		total += c.ResolvedAt.Sub(*c.CreatedAt)
		stats.TimedCount++
	}

	if stats.TimedCount > 0 {
		avg := total / time.Duration(stats.TimedCount)
		millis := avg.Milliseconds()
		stats.AverageResolution = &avg
		stats.AverageMillis = &millis
	}
	stats.AverageDisplay = FormatDuration(stats.AverageResolution)
	return stats
}

// FormatDuration renders an average resolution time as "1d 2h 3m".
func FormatDuration(d *time.Duration) string {
	if d == nil || *d < 0 {
		return "N/A"
	}
	if *d == 0 {
		return "No issues resolved"
	}

	minutes := int64(*d / time.Minute)
	hours := minutes / 60
	days := hours / 24
	hours %= 24
	minutes %= 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "< 1m"
	}
	return strings.Join(parts, " ")
}
