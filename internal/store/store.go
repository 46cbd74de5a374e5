package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vendorhub/internal/domain"
	"vendorhub/internal/metrics"
	apperrors "vendorhub/pkg/errors"
)

// Store is the gorm-backed persistence layer for queries, inquiries, vendors and users
type Store struct {
	db *gorm.DB
}

// New creates a store over an open connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}

// observe records the duration and outcome of a store operation
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	metrics.RecordDBQuery(operation, time.Since(start), err)
}

// wrap converts gorm errors into the application taxonomy
func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("%s not found", what)
	}
	return apperrors.Persistence(fmt.Sprintf("failed to access %s", what), err)
}

// CreateVendor inserts a vendor
func (s *Store) CreateVendor(ctx context.Context, v *domain.Vendor) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Create(v).Error
	observe("create_vendor", start, err)
	return wrap(err, "vendor")
}

// GetVendor loads a vendor by id
func (s *Store) GetVendor(ctx context.Context, id uint) (*domain.Vendor, error) {
	start := time.Now()
	var v domain.Vendor
	err := s.db.WithContext(ctx).First(&v, id).Error
	observe("get_vendor", start, err)
	if err != nil {
		return nil, wrap(err, "vendor")
	}
	return &v, nil
}

// CreateUser inserts a user
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Create(u).Error
	observe("create_user", start, err)
	return wrap(err, "user")
}

// GetUserByUsername loads a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	start := time.Now()
	var u domain.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	observe("get_user", start, err)
	if err != nil {
		return nil, wrap(err, "user")
	}
	return &u, nil
}

// TouchLastLogin stamps the user's last login time
func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("last_login", at).Error
	observe("touch_last_login", start, err)
	return wrap(err, "user")
}
