// Package storagetest provides a testify mock of storage.Storage.
package storagetest

import (
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

var _ storage.Storage = (*MockStorage)(nil)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) ListComplaints(ctx context.Context, scope storage.ComplaintScope) ([]models.Complaint, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockStorage) SaveComplaint(ctx context.Context, complaint *models.Complaint) error {
	args := m.Called(ctx, complaint)
	return args.Error(0)
}

func (m *MockStorage) UpdateComplaintStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID string, at time.Time) (*models.Complaint, bool, error) {
	args := m.Called(ctx, id, status, actorID, at)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Bool(1), args.Error(2)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStorage) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) UpdateUserProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockStorage) ListCommunityPosts(ctx context.Context) ([]models.CommunityPost, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CommunityPost), args.Error(1)
}

func (m *MockStorage) ListAssignments(ctx context.Context) ([]models.CategoryAssignment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CategoryAssignment), args.Error(1)
}

func (m *MockStorage) GetAssignment(ctx context.Context, category string) (*models.CategoryAssignment, error) {
	args := m.Called(ctx, category)
	a, _ := args.Get(0).(*models.CategoryAssignment)
	return a, args.Error(1)
}

func (m *MockStorage) ApplyAssignment(ctx context.Context, plan models.AssignmentPlan) (*models.AssignmentResult, error) {
	args := m.Called(ctx, plan)
	r, _ := args.Get(0).(*models.AssignmentResult)
	return r, args.Error(1)
}

func (m *MockStorage) PublishChange(ctx context.Context, event models.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStorage) SubscribeChanges(ctx context.Context) *redis.PubSub {
	args := m.Called(ctx)
	ps, _ := args.Get(0).(*redis.PubSub)
	return ps
}

// MockEvents records queued complaint events.
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishEvent(ctx context.Context, event models.ComplaintEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
