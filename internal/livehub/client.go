package livehub

import "civicdesk/backend/internal/models"

// Subscription is what a connected dashboard is allowed to hear about.
type Subscription struct {
	UserID   string
	Role     models.Role
	Category string
}

// Wants reports whether an event concerns this subscriber. Gods hear every
// change; kings hear their category, their own user record and community posts.
func (s Subscription) Wants(e models.ChangeEvent) bool {
	if s.Role == models.RoleGod {
		return true
	}
	if s.Role != models.RoleKing {
		return false
	}
	switch e.Collection {
	case models.CollectionUsers:
		return e.DocumentID == s.UserID
	case models.CollectionPosts:
		return true
	}
	return s.Category != "" && e.Category == s.Category
}

// Client is one live dashboard connection. The hub owns the send channel's
// lifecycle and calls Close exactly once.
type Client interface {
	// GetClientID returns the connection id; one user may hold several.
	GetClientID() string
	GetSubscription() Subscription
	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.ChangeEvent
	// Run starts the read and write pumps.
	Run()
	Close()
}
