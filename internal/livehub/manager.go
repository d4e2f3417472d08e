// Package livehub pushes document change notifications to connected dashboards.
package livehub

import (
	"civicdesk/backend/internal/models"
	"context"
	"sync"

	"go.uber.org/zap"
)

// ManagerService тримає реєстр клієнтів і розсилає їм події.
// Only the Run goroutine mutates Clients and subs.
type ManagerService struct {
	mu      sync.RWMutex
	Clients map[string]Client
	// subs starts as each client's subscription and follows assignment changes.
	subs map[string]Subscription

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventsCh     chan models.ChangeEvent
	done         chan struct{}

	// OnClientCount, when set, is called with the new count after every change.
	OnClientCount func(int)
	Logger        *zap.Logger
}

func NewManagerService(logger *zap.Logger) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		subs:         make(map[string]Subscription),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventsCh:     make(chan models.ChangeEvent, 64),
		done:         make(chan struct{}),
		Logger:       logger,
	}
}

// Run dispatches registrations and events until ctx is done. On exit every
// remaining client is closed.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client.GetClientID())

		case event := <-m.EventsCh:
			m.broadcast(event)

		case <-ctx.Done():
			m.mu.Lock()
			for id, client := range m.Clients {
				client.Close()
				delete(m.Clients, id)
				delete(m.subs, id)
			}
			m.mu.Unlock()
			m.reportCount()
			return
		}
	}
}

// Register hands a client to the hub. It returns false once the hub has stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

func (m *ManagerService) register(client Client) {
	m.mu.Lock()
	m.Clients[client.GetClientID()] = client
	m.subs[client.GetClientID()] = client.GetSubscription()
	m.mu.Unlock()

	m.Logger.Debug("Live client registered",
		zap.String("client_id", client.GetClientID()),
		zap.String("user_id", client.GetSubscription().UserID))
	m.reportCount()
}

func (m *ManagerService) unregister(id string) {
	m.mu.Lock()
	client, ok := m.Clients[id]
	if ok {
		delete(m.Clients, id)
		delete(m.subs, id)
		client.Close()
	}
	m.mu.Unlock()

	if ok {
		m.Logger.Debug("Live client unregistered", zap.String("client_id", id))
		m.reportCount()
	}
}

// broadcast never blocks: a client whose buffer is full is dropped and will
// reconnect and re-read its views.
func (m *ManagerService) broadcast(event models.ChangeEvent) {
	if event.Collection == models.CollectionAssignments {
		m.follow(event)
	}

	var slow []string

	m.mu.RLock()
	for id, client := range m.Clients {
		if !m.subs[id].Wants(event) {
			continue
		}
		select {
		case client.GetSendChannel() <- event:
		default:
			slow = append(slow, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range slow {
		m.Logger.Warn("Dropping slow live client", zap.String("client_id", id))
		m.unregister(id)
	}
}

// follow moves king subscriptions to the category's new holder, so a
// reassigned king hears its new category without reconnecting.
func (m *ManagerService) follow(event models.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subs {
		if sub.Role != models.RoleKing {
			continue
		}
		switch {
		case event.KingID != "" && sub.UserID == event.KingID:
			sub.Category = event.Category
		case sub.Category == event.Category:
			sub.Category = ""
		default:
			continue
		}
		m.subs[id] = sub
	}
}

// Subscription returns the current scope of a connection.
func (m *ManagerService) Subscription(id string) (Subscription, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[id]
	return sub, ok
}

// HasClient reports whether a connection is registered.
func (m *ManagerService) HasClient(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Clients[id]
	return ok
}

// ClientCount returns the number of live connections.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients)
}

func (m *ManagerService) reportCount() {
	if m.OnClientCount != nil {
		m.OnClientCount(m.ClientCount())
	}
}
