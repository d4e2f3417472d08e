package storage

import (
	"civicdesk/backend/internal/models"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Service) ListAssignments(ctx context.Context) ([]models.CategoryAssignment, error) {
	var assignments []models.CategoryAssignment
	if err := s.DB.WithContext(ctx).Order("category asc").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *Service) GetAssignment(ctx context.Context, category string) (*models.CategoryAssignment, error) {
	var assignment models.CategoryAssignment
	err := s.DB.WithContext(ctx).Where("category = ?", category).Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // категорія вільна
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ApplyAssignment executes an assignment plan in one transaction. The
// category row is locked and compared against plan.ExpectedHolder first;
// a mismatch, or a concurrent first assignment of a free category, returns
// ErrAssignmentConflict and writes nothing.
func (s *Service) ApplyAssignment(ctx context.Context, plan models.AssignmentPlan) (*models.AssignmentResult, error) {
	result := &models.AssignmentResult{Category: plan.Category, KingID: plan.SetKingID}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.CategoryAssignment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("category = ?", plan.Category).
			Take(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if current.KingID != plan.ExpectedHolder {
			return ErrAssignmentConflict
		}
		if current.KingID != plan.SetKingID {
			result.PreviousKingID = current.KingID
		}

		if plan.ClearKingID != "" {
			// a holder deleted since its assignment has nothing to clear
			if err := setDomain(tx, plan.ClearKingID, ""); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		if plan.SetKingID == "" {
			return tx.Where("category = ?", plan.Category).Delete(&models.CategoryAssignment{}).Error
		}

		// Один король має одну категорію, тому звільняємо попередню.
		var held models.CategoryAssignment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("king_id = ? AND category <> ?", plan.SetKingID, plan.Category).
			Take(&held).Error
		switch {
		case err == nil:
			if err := tx.Where("category = ?", held.Category).Delete(&models.CategoryAssignment{}).Error; err != nil {
				return err
			}
			result.ReleasedCategory = held.Category
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if current.KingID == "" {
			// a concurrent first assignment makes this insert hit the primary key
			if err := tx.Create(&models.CategoryAssignment{Category: plan.Category, KingID: plan.SetKingID}).Error; err != nil {
				return err
			}
		} else if err := tx.Model(&current).Update("king_id", plan.SetKingID).Error; err != nil {
			return err
		}

		return setDomain(tx, plan.SetKingID, plan.Category)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAssignmentConflict
		}
		return nil, translate(err)
	}
	return result, nil
}

// setDomain keeps users.domain_genre in step with the assignment table.
func setDomain(tx *gorm.DB, kingID, category string) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND role = ?", kingID, models.RoleKing).
		Update("domain_genre", category)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
