package models

import "time"

// Collection names used as document addresses.
const (
	CollectionComplaints  = "complaints"
	CollectionUsers       = "users"
	CollectionPosts       = "community_posts"
	CollectionAssignments = "category_assignments"
)

// ChangeOp is the kind of document change.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent is published on every document write and fanned out to live
// dashboard clients. Clients re-read the affected view when they receive it.
// On category_assignments events KingID is the new holder, empty when freed.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId"`
	Category   string    `json:"category,omitempty"`
	KingID     string    `json:"kingId,omitempty"`
	Op         ChangeOp  `json:"op"`
	At         time.Time `json:"at"`
}

// ComplaintEventType names the queue events consumed by the notification worker.
type ComplaintEventType string

const (
	EventStatusChanged      ComplaintEventType = "status_changed"
	EventCategoryAssigned   ComplaintEventType = "category_assigned"
	EventCategoryUnassigned ComplaintEventType = "category_unassigned"
)

// ComplaintEvent is the message body on the complaint_events queue.
type ComplaintEvent struct {
	Type           ComplaintEventType `json:"type"`
	ComplaintID    string             `json:"complaintId,omitempty"`
	Category       string             `json:"category,omitempty"`
	Status         ComplaintStatus    `json:"status,omitempty"`
	ActorID        string             `json:"actorId,omitempty"`
	KingID         string             `json:"kingId,omitempty"`
	PreviousKingID string             `json:"previousKingId,omitempty"`
	At             time.Time          `json:"at"`
}
