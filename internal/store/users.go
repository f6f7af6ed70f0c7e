package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indureport/indureportgo/internal/database"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
)

// UserStore persists user accounts and owns the per-user sync watermark.
// It implements sync.WatermarkStore.
type UserStore struct {
	db *database.DB
}

// NewUserStore creates a user store over the given database
func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user, assigning an id
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(u).Error
}

// Get fetches a user by id
func (s *UserStore) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername fetches a user by username or email address; login clients
// send either.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "username = ? OR email = ?", username, username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error
	return users, err
}

// Save persists changes to an existing user
func (s *UserStore) Save(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

// Delete soft-deletes a user
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

// LastSync returns the user's sync watermark; the zero time means the user
// has never completed an exchange.
func (s *UserStore) LastSync(ctx context.Context, userID string) (time.Time, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Select("last_sync").
		First(&u, "id = ?", userID).Error
	if err != nil {
		return time.Time{}, err
	}
	if u.LastSync == nil {
		return time.Time{}, nil
	}
	return *u.LastSync, nil
}

// AdvanceLastSync moves the watermark forward with a compare-and-swap: the
// update only applies while the stored value is still behind the target, so
// concurrent exchanges can never move it backwards.
func (s *UserStore) AdvanceLastSync(ctx context.Context, userID string, to time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND (last_sync IS NULL OR last_sync < ?)", userID, to).
		Update("last_sync", to)
	// zero rows affected means another exchange already advanced it further,
	// which satisfies monotonicity
	return res.Error
}
