// Package complaint provides the complaint workflows of the dashboard:
// role-scoped listing, the filter/sort engine, status transitions and export.
package complaint

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("complaint not found")
	ErrForbidden     = errors.New("complaint is outside your domain")
	ErrInvalidStatus = errors.New("invalid complaint status")
	ErrNoExporter    = errors.New("export storage is not configured")
)

// EventPublisher queues complaint events for the notification worker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.ComplaintEvent) error
}

// Exporter uploads a complaint table and returns a download URL.
type Exporter interface {
	ExportCSV(ctx context.Context, name string, complaints []models.Complaint) (string, error)
}

// Service handles the business logic for complaints.
type Service struct {
	Store    storage.ComplaintStore
	Changes  storage.ChangePublisher
	Events   EventPublisher
	Exporter Exporter
	Now      func() time.Time
	Logger   *zap.Logger
}

// NewService creates a new complaint service. Changes, Events and Exporter may be set afterwards.
func NewService(store storage.ComplaintStore, logger *zap.Logger) *Service {
	return &Service{
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		Logger: logger,
	}
}

// ScopeFor returns the listing scope of a viewer. visible is false for a king
// without a domain, who sees nothing.
func ScopeFor(viewer *models.User) (scope storage.ComplaintScope, visible bool, err error) {
	switch {
	case viewer.IsGod():
		return storage.ComplaintScope{}, true, nil
	case viewer.IsKing():
		if viewer.Domain.Genre == "" {
			return storage.ComplaintScope{}, false, nil
		}
		return storage.ComplaintScope{Category: viewer.Domain.Genre}, true, nil
	}
	return storage.ComplaintScope{}, false, ErrForbidden
}

// CanAccess reports whether viewer may read and triage c.
func CanAccess(viewer *models.User, c *models.Complaint) bool {
	if viewer.IsGod() {
		return true
	}
	return viewer.IsKing() && viewer.Domain.Genre != "" && viewer.Domain.Genre == c.Category
}

// Snapshot returns every complaint visible to viewer, scored at the current time.
func (s *Service) Snapshot(ctx context.Context, viewer *models.User) ([]models.Complaint, error) {
	scope, visible, err := ScopeFor(viewer)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []models.Complaint{}, nil
	}

	complaints, err := s.Store.ListComplaints(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	analysis.ScoreAll(complaints, s.Now())
	return complaints, nil
}

// List returns the viewer's complaints filtered and sorted by view.
func (s *Service) List(ctx context.Context, viewer *models.User, view View) ([]models.Complaint, error) {
	complaints, err := s.Snapshot(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return view.Apply(complaints)
}

// Get returns one scored complaint.
func (s *Service) Get(ctx context.Context, viewer *models.User, id string) (*models.Complaint, error) {
	c, err := s.Store.GetComplaint(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get complaint %s: %w", id, err)
	}
	if !CanAccess(viewer, c) {
		return nil, ErrForbidden
	}
	c.PriorityScore = analysis.PriorityScore(*c, s.Now())
	return c, nil
}

// UpdateStatus moves a complaint to status on behalf of actor. A move that
// changes nothing is not announced.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, id string, status models.ComplaintStatus) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	now := s.Now()
	updated, changed, err := s.Store.UpdateComplaintStatus(ctx, id, status, actor.ID, now)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update complaint %s: %w", id, err)
	}
	updated.PriorityScore = analysis.PriorityScore(*updated, now)
	if !changed {
		return updated, nil
	}

	s.Logger.Info("Complaint status updated",
		zap.String("complaint_id", id),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID))

	s.announce(ctx, updated, actor.ID, now)
	return updated, nil
}

// Export uploads the viewer's current view as CSV and returns its URL.
func (s *Service) Export(ctx context.Context, viewer *models.User, view View) (string, int, error) {
	if s.Exporter == nil {
		return "", 0, ErrNoExporter
	}
	complaints, err := s.List(ctx, viewer, view)
	if err != nil {
		return "", 0, err
	}

	name := fmt.Sprintf("complaints-%s-%s.csv", viewer.ID, s.Now().Format("20060102T150405Z"))
	url, err := s.Exporter.ExportCSV(ctx, name, complaints)
	if err != nil {
		return "", 0, fmt.Errorf("export complaints: %w", err)
	}
	return url, len(complaints), nil
}

// announce publishes the change notification and the queue event. The write
// is already committed, so failures are only logged.
func (s *Service) announce(ctx context.Context, c *models.Complaint, actorID string, at time.Time) {
	if s.Changes != nil {
		change := models.ChangeEvent{
			Collection: models.CollectionComplaints,
			DocumentID: c.ID,
			Category:   c.Category,
			Op:         models.OpUpdated,
			At:         at,
		}
		if err := s.Changes.PublishChange(ctx, change); err != nil {
			s.Logger.Warn("Failed to publish complaint change", zap.String("complaint_id", c.ID), zap.Error(err))
		}
	}
	if s.Events != nil {
		event := models.ComplaintEvent{
			Type:        models.EventStatusChanged,
			ComplaintID: c.ID,
			Category:    c.Category,
			Status:      c.Status,
			ActorID:     actorID,
			At:          at,
		}
		if err := s.Events.PublishEvent(ctx, event); err != nil {
			s.Logger.Warn("Failed to queue status event", zap.String("complaint_id", c.ID), zap.Error(err))
		}
	}
}
