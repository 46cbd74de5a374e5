package domain

import (
	"time"

	"gorm.io/gorm"
)

// Vendor is a marketplace listing that can receive inquiries
type Vendor struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Category  string     `gorm:"index" json:"category"`
	City      string     `gorm:"index" json:"city"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// TableName specifies the table name for Vendor
func (Vendor) TableName() string {
	return "vendors"
}

// BeforeUpdate hook
func (v *Vendor) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now()
	v.UpdatedAt = &now
	return nil
}
