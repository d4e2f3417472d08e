// Package dashboard assembles the read-only dashboard views from the store
// and the pure aggregators in internal/analysis.
package dashboard

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"context"
	"fmt"
)

// Store is the persistence the dashboard reads.
type Store interface {
	storage.ComplaintStore
	storage.PostStore
	storage.AssignmentStore
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type Service struct {
	Store             Store
	Complaints        *complaint.Service
	Sentiment         analysis.Scorer
	HeatmapResolution int
}

func NewService(store Store, complaints *complaint.Service, scorer analysis.Scorer, resolution int) *Service {
	return &Service{Store: store, Complaints: complaints, Sentiment: scorer, HeatmapResolution: resolution}
}

// Stats summarizes the complaints visible to viewer.
func (s *Service) Stats(ctx context.Context, viewer *models.User) (analysis.DashboardStats, error) {
	complaints, err := s.Complaints.Snapshot(ctx, viewer)
	if err != nil {
		return analysis.DashboardStats{}, err
	}

	assignments, err := s.assignmentMap(ctx)
	if err != nil {
		return analysis.DashboardStats{}, err
	}
	kings, err := s.Store.ListUsersByRole(ctx, models.RoleKing)
	if err != nil {
		return analysis.DashboardStats{}, fmt.Errorf("list kings: %w", err)
	}
	return analysis.Summarize(complaints, assignments, kings), nil
}

// SentimentCounts buckets every community post.
func (s *Service) SentimentCounts(ctx context.Context) (analysis.SentimentCounts, error) {
	posts, err := s.Store.ListCommunityPosts(ctx)
	if err != nil {
		return analysis.SentimentCounts{}, fmt.Errorf("list posts: %w", err)
	}
	return analysis.BucketSentiment(posts, s.Sentiment), nil
}

// Heatmap aggregates the viewer's located complaints. A zero resolution uses the configured one.
func (s *Service) Heatmap(ctx context.Context, viewer *models.User, resolution int) (analysis.HeatmapView, error) {
	if resolution == 0 {
		resolution = s.HeatmapResolution
	}
	complaints, err := s.Complaints.Snapshot(ctx, viewer)
	if err != nil {
		return analysis.HeatmapView{}, err
	}
	return analysis.Heatmap(complaints, resolution)
}

// Leaderboard ranks every king by average resolution time.
func (s *Service) Leaderboard(ctx context.Context) ([]analysis.LeaderboardEntry, error) {
	kings, err := s.Store.ListUsersByRole(ctx, models.RoleKing)
	if err != nil {
		return nil, fmt.Errorf("list kings: %w", err)
	}
	resolved, err := s.Store.ListComplaints(ctx, storage.ComplaintScope{Status: models.StatusResolved})
	if err != nil {
		return nil, fmt.Errorf("list resolved complaints: %w", err)
	}
	return analysis.Leaderboard(resolved, kings), nil
}

// ResolutionSummary returns the resolution stats of one user for the profile page.
func (s *Service) ResolutionSummary(ctx context.Context, userID string) (analysis.ResolutionStats, error) {
	resolved, err := s.Store.ListComplaints(ctx, storage.ComplaintScope{Status: models.StatusResolved, ResolvedBy: userID})
	if err != nil {
		return analysis.ResolutionStats{}, fmt.Errorf("list resolved complaints: %w", err)
	}
	return analysis.ResolutionSummary(resolved, userID), nil
}

// Kings lists the assignable kings.
func (s *Service) Kings(ctx context.Context) ([]models.User, error) {
	return s.Store.ListUsersByRole(ctx, models.RoleKing)
}

func (s *Service) assignmentMap(ctx context.Context) (map[string]string, error) {
	rows, err := s.Store.ListAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Category] = r.KingID
	}
	return out, nil
}
