// Package storage persists the dashboard documents in PostgreSQL and fans
// document changes out over Redis Pub/Sub.
package storage

import (
	"civicdesk/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("document already exists")
	// ErrAssignmentConflict is returned when a category changed hands between
	// the read and the write of an assignment.
	ErrAssignmentConflict = errors.New("category assignment changed concurrently")
)

// ComplaintScope narrows a complaint listing. Empty fields do not filter.
type ComplaintScope struct {
	Category   string
	Status     models.ComplaintStatus
	ResolvedBy string
}

type ComplaintStore interface {
	ListComplaints(ctx context.Context, scope ComplaintScope) ([]models.Complaint, error)
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	SaveComplaint(ctx context.Context, complaint *models.Complaint) error
	UpdateComplaintStatus(ctx context.Context, id string, status models.ComplaintStatus, actorID string, at time.Time) (*models.Complaint, bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
}

type PostStore interface {
	ListCommunityPosts(ctx context.Context) ([]models.CommunityPost, error)
}

type AssignmentStore interface {
	ListAssignments(ctx context.Context) ([]models.CategoryAssignment, error)
	// GetAssignment returns nil when nobody holds the category.
	GetAssignment(ctx context.Context, category string) (*models.CategoryAssignment, error)
	ApplyAssignment(ctx context.Context, plan models.AssignmentPlan) (*models.AssignmentResult, error)
}

// ChangePublisher announces document writes to live clients.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event models.ChangeEvent) error
}

type Storage interface {
	ComplaintStore
	UserStore
	PostStore
	AssignmentStore
	ChangePublisher

	SubscribeChanges(ctx context.Context) *redis.PubSub
}

type Service struct {
	DB            *gorm.DB
	Redis         *redis.Client
	ChangeChannel string
}

// NewStorageService Constructor. A nil Redis client disables change publishing.
func NewStorageService(db *gorm.DB, rdb *redis.Client, changeChannel string) *Service {
	return &Service{
		DB:            db,
		Redis:         rdb,
		ChangeChannel: changeChannel,
	}
}

// OpenPostgres connects GORM to PostgreSQL. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	return db, nil
}

// OpenRedis connects and pings Redis.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return rdb, nil
}

// Migrate створює або оновлює всі таблиці.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.CommunityPost{},
		&models.CategoryAssignment{},
	)
}

// PublishChange публікує подію зміни документа в Redis Pub/Sub
func (s *Service) PublishChange(ctx context.Context, event models.ChangeEvent) error {
	if s.Redis == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(ctx, s.ChangeChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// SubscribeChanges subscribes to the change channel. Returns nil without Redis.
func (s *Service) SubscribeChanges(ctx context.Context) *redis.PubSub {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Subscribe(ctx, s.ChangeChannel)
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
