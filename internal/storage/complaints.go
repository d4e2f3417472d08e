package storage

import (
	"civicdesk/backend/internal/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListComplaints повертає скарги в межах scope, найновіші першими.
func (s *Service) ListComplaints(ctx context.Context, scope ComplaintScope) ([]models.Complaint, error) {
	q := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if scope.Category != "" {
		q = q.Where("category = ?", scope.Category)
	}
	if scope.Status != "" {
		q = q.Where("status = ?", scope.Status)
	}
	if scope.ResolvedBy != "" {
		q = q.Where("resolved_by = ?", scope.ResolvedBy)
	}

	var complaints []models.Complaint
	if err := q.Order("created_at desc nulls last").Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&complaint).Error; err != nil {
		return nil, translate(err)
	}
	return &complaint, nil
}

// SaveComplaint створює скаргу. Status defaults to Pending and createdAt to now.
func (s *Service) SaveComplaint(ctx context.Context, complaint *models.Complaint) error {
	if complaint.Status == "" {
		complaint.Status = models.StatusPending
	}
	if complaint.CreatedAt == nil {
		now := time.Now().UTC()
		complaint.CreatedAt = &now
	}
	return translate(s.DB.WithContext(ctx).Create(complaint).Error)
}

// UpdateComplaintStatus applies a status transition under a row lock so two
// concurrent resolutions cannot both stamp resolvedAt. It reports whether the
// row changed.
func (s *Service) UpdateComplaintStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID string, at time.Time) (*models.Complaint, bool, error) {
	var complaint models.Complaint
	var changed bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&complaint).Error; err != nil {
			return err
		}

		if changed = complaint.ApplyStatus(status, actorID, at); !changed {
			return nil
		}

		return tx.Model(&complaint).Updates(map[string]interface{}{
			"status":      complaint.Status,
			"resolved_at": complaint.ResolvedAt,
			"resolved_by": complaint.ResolvedBy,
		}).Error
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return &complaint, changed, nil
}

func (s *Service) ListCommunityPosts(ctx context.Context) ([]models.CommunityPost, error) {
	var posts []models.CommunityPost
	if err := s.DB.WithContext(ctx).Order("created_at desc nulls last").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
