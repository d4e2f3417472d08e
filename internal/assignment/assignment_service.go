// Package assignment manages which king rules which complaint category.
package assignment

import (
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrKingNotFound = errors.New("king not found")
	ErrConflict     = errors.New("category was reassigned concurrently, reload and retry")
	ErrNoCategory   = errors.New("category is required")
)

// Store is the persistence the assignment workflow needs.
type Store interface {
	storage.AssignmentStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type Service struct {
	Store   Store
	Changes storage.ChangePublisher
	Events  complaint.EventPublisher
	Now     func() time.Time
	Logger  *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		Logger: logger,
	}
}

// Assign gives category to kingID, or frees it when kingID is models.Unassigned.
// The previous holder loses its domain; a king taking a new category
// releases the one it held. Nothing is written when the target is not a king.
func (s *Service) Assign(ctx context.Context, category, kingID string) (*models.AssignmentResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrNoCategory
	}

	current, err := s.Store.GetAssignment(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("read assignment %q: %w", category, err)
	}
	holder := ""
	if current != nil {
		holder = current.KingID
	}

	plan := models.AssignmentPlan{Category: category, ExpectedHolder: holder}
	if kingID == models.Unassigned || kingID == "" {
		plan.ClearKingID = holder
	} else {
		target, err := s.Store.GetUserByID(ctx, kingID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && !target.IsKing()) {
			return nil, fmt.Errorf("%w: %s", ErrKingNotFound, kingID)
		}
		if err != nil {
			return nil, fmt.Errorf("read king %s: %w", kingID, err)
		}
		if holder != "" && holder != kingID {
			plan.ClearKingID = holder
		}
		plan.SetKingID = kingID
	}

	result, err := s.Store.ApplyAssignment(ctx, plan)
	switch {
	case errors.Is(err, storage.ErrAssignmentConflict):
		return nil, ErrConflict
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrKingNotFound, kingID)
	case err != nil:
		return nil, fmt.Errorf("apply assignment %q: %w", category, err)
	}

	s.Logger.Info("Category assignment applied",
		zap.String("category", category),
		zap.String("king_id", result.KingID),
		zap.String("previous_king_id", result.PreviousKingID),
		zap.String("released_category", result.ReleasedCategory))

	s.announce(ctx, result)
	return result, nil
}

// Assignments returns the category→king map.
func (s *Service) Assignments(ctx context.Context) (map[string]string, error) {
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

func (s *Service) announce(ctx context.Context, r *models.AssignmentResult) {
	now := s.Now()

	if s.Changes != nil {
		changes := []models.ChangeEvent{{
			Collection: models.CollectionAssignments, DocumentID: r.Category, Category: r.Category, KingID: r.KingID, Op: models.OpUpdated, At: now,
		}}
		if r.ReleasedCategory != "" {
			changes = append(changes, models.ChangeEvent{
				Collection: models.CollectionAssignments, DocumentID: r.ReleasedCategory, Category: r.ReleasedCategory, Op: models.OpDeleted, At: now,
			})
		}
		for _, id := range []string{r.PreviousKingID, r.KingID} {
			if id != "" {
				changes = append(changes, models.ChangeEvent{Collection: models.CollectionUsers, DocumentID: id, Op: models.OpUpdated, At: now})
			}
		}
		for _, ev := range changes {
			if err := s.Changes.PublishChange(ctx, ev); err != nil {
				s.Logger.Warn("Failed to publish assignment change", zap.String("document_id", ev.DocumentID), zap.Error(err))
			}
		}
	}

	if s.Events != nil {
		event := models.ComplaintEvent{
			Type:           models.EventCategoryAssigned,
			Category:       r.Category,
			KingID:         r.KingID,
			PreviousKingID: r.PreviousKingID,
			At:             now,
		}
		if r.KingID == "" {
			event.Type = models.EventCategoryUnassigned
		}
		if err := s.Events.PublishEvent(ctx, event); err != nil {
			s.Logger.Warn("Failed to queue assignment event", zap.String("category", r.Category), zap.Error(err))
		}
	}
}
