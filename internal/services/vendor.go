package services

import (
	"context"
	"log"
	"strings"

	"vendorhub/internal/domain"
	"vendorhub/internal/store"
	apperrors "vendorhub/pkg/errors"
)

// VendorPayload describes a vendor listing
type VendorPayload struct {
	Name     string
	Category string
	City     string
	Email    string
	Phone    *string
}

// VendorService manages vendor listings
type VendorService struct {
	store *store.Store
}

// NewVendorService creates a new vendor service
func NewVendorService(st *store.Store) *VendorService {
	return &VendorService{store: st}
}

// Create adds a vendor listing
func (s *VendorService) Create(ctx context.Context, p *VendorPayload) (*domain.Vendor, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperrors.Validation("vendor name is required")
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email != "" && !emailRegex.MatchString(email) {
		return nil, apperrors.Validation("invalid email address")
	}

	v := &domain.Vendor{
		Name:     name,
		Category: strings.ToLower(strings.TrimSpace(p.Category)),
		City:     strings.TrimSpace(p.City),
		Email:    email,
		Phone:    trimmedOrNil(p.Phone),
	}
	if err := s.store.CreateVendor(ctx, v); err != nil {
		return nil, err
	}
	log.Printf("[VENDOR] Vendor created: id=%d, name=%s", v.ID, v.Name)
	return v, nil
}

// Get returns a vendor
func (s *VendorService) Get(ctx context.Context, id uint) (*domain.Vendor, error) {
	return s.store.GetVendor(ctx, id)
}
