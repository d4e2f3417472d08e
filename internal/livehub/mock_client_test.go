package livehub_test

import (
	"civicdesk/backend/internal/livehub"
	"civicdesk/backend/internal/models"
	"sync/atomic"
)

type MockClient struct {
	id          string
	sub         livehub.Subscription
	RecvChannel chan models.ChangeEvent
	closed      atomic.Int32
}

func newMockClient(id string, sub livehub.Subscription, buffer int) *MockClient {
	return &MockClient{id: id, sub: sub, RecvChannel: make(chan models.ChangeEvent, buffer)}
}

func (c *MockClient) GetClientID() string                       { return c.id }
func (c *MockClient) GetSubscription() livehub.Subscription     { return c.sub }
func (c *MockClient) GetSendChannel() chan<- models.ChangeEvent { return c.RecvChannel }
func (c *MockClient) Run()                                      {}
func (c *MockClient) Close()                                    { c.closed.Add(1) }
