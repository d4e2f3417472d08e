package models

import "time"

// Unassigned is the sentinel king id that releases a category.
const Unassigned = "unassigned"

// CategoryAssignment is the authoritative category→king mapping.
// Both columns are unique: a category has at most one king and a king rules
// at most one category.
type CategoryAssignment struct {
	Category  string    `gorm:"primaryKey" json:"category"`
	KingID    string    `gorm:"uniqueIndex;not null" json:"kingId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CategoryAssignment) TableName() string {
	return "category_assignments"
}

// AssignmentPlan describes the writes of one assignment. The store applies it
// atomically and only if the category is still held by ExpectedHolder.
type AssignmentPlan struct {
	Category       string
	ExpectedHolder string // "" when the category was free
	ClearKingID    string // holder whose domain is cleared, "" for none
	SetKingID      string // new holder, "" to leave the category free
}

// AssignmentResult reports the terminal state of an assignment.
type AssignmentResult struct {
	Category         string `json:"category"`
	KingID           string `json:"kingId,omitempty"`
	PreviousKingID   string `json:"previousKingId,omitempty"`
	ReleasedCategory string `json:"releasedCategory,omitempty"`
}
