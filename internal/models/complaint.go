package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Severity is the citizen-reported hazard level of a complaint.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ComplaintStatus is the triage state of a complaint.
type ComplaintStatus string

const (
	StatusPending      ComplaintStatus = "Pending"
	StatusAcknowledged ComplaintStatus = "Acknowledged"
	StatusInProgress   ComplaintStatus = "in progress"
	StatusResolved     ComplaintStatus = "Resolved"
	StatusNotBMC       ComplaintStatus = "Not BMC"
)

// Statuses lists every status in the order the dashboard offers them.
var Statuses = []ComplaintStatus{
	StatusPending,
	StatusNotBMC,
	StatusAcknowledged,
	StatusInProgress,
	StatusResolved,
}

// Valid reports whether s is one of the known statuses.
func (s ComplaintStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Complaint is a citizen-submitted report. It is created by the submission
// flow and only mutated here through status transitions.
type Complaint struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	Category    string          `gorm:"index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Severity    Severity        `gorm:"type:text" json:"severity"`
	Status      ComplaintStatus `gorm:"type:text;index;default:Pending" json:"status"`
	UserID      string          `gorm:"index" json:"userId"`
	UserName    string          `json:"userName"`

	// Supporters are the user ids backing the complaint.
	Supporters pq.StringArray `gorm:"type:text[]" json:"supporters,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// CreatedAt may be absent on legacy documents; the scorer treats that as zero age.
	CreatedAt  *time.Time `gorm:"autoCreateTime:false" json:"createdAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `gorm:"index" json:"resolvedBy,omitempty"`

	PriorityScore int `gorm:"-" json:"priorityScore"`
}

// TableName pins the collection name.
func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate assigns a UUID when the submitter did not provide an id.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// Location returns the complaint position, if both coordinates are present.
func (c Complaint) Location() (GeoPoint, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Latitude: *c.Latitude, Longitude: *c.Longitude}, true
}

// IsResolved reports whether the complaint reached its terminal status.
func (c Complaint) IsResolved() bool {
	return c.Status == StatusResolved
}

// ApplyStatus moves the complaint to status. The first transition into
// Resolved stamps ResolvedAt and ResolvedBy; later transitions never touch
// them. It reports whether anything changed.
func (c *Complaint) ApplyStatus(status ComplaintStatus, actorID string, at time.Time) bool {
	changed := c.Status != status
	c.Status = status
	if status == StatusResolved && c.ResolvedAt == nil {
		stamp := at
		c.ResolvedAt = &stamp
		c.ResolvedBy = actorID
		changed = true
	}
	return changed
}
