package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"vendorhub/internal/domain"
)

// CreateInquiry inserts an inquiry without touching its vendor
func (s *Store) CreateInquiry(ctx context.Context, i *domain.Inquiry) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(i).Error
	observe("create_inquiry", start, err)
	return wrap(err, "inquiry")
}

// ListInquiriesWithoutQuery returns inquiries whose Query projection is missing
func (s *Store) ListInquiriesWithoutQuery(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	start := time.Now()
	var inquiries []domain.Inquiry
	err := s.db.WithContext(ctx).
		Select("inquiries.*").
		Joins("LEFT JOIN queries ON queries.inquiry_id = inquiries.id").
		Where("queries.id IS NULL").
		Preload("Vendor").
		Order("inquiries.id ASC").
		Limit(limit).
		Find(&inquiries).Error
	observe("list_orphan_inquiries", start, err)
	if err != nil {
		return nil, wrap(err, "inquiries")
	}
	return inquiries, nil
}
