package domain

import (
	"time"

	"gorm.io/gorm"
)

// Inquiry is a customer message addressed to a specific vendor
type Inquiry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VendorID  uint      `gorm:"not null;index" json:"vendorId"`
	Vendor    *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null;index" json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate hook
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Projection derives the Query record that tracks escalation for this inquiry
func (i *Inquiry) Projection() *Query {
	inquiryID := i.ID
	vendorID := i.VendorID
	q := &Query{
		Source:          SourceInquiry,
		Name:            i.Name,
		Email:           i.Email,
		Phone:           i.Phone,
		Message:         i.Message,
		Status:          StatusPending,
		EscalationLevel: LevelCustomerSupport,
		CreatedAt:       i.CreatedAt,
		InquiryID:       &inquiryID,
		VendorID:        &vendorID,
	}
	if i.Vendor != nil {
		subject := "Inquiry for " + i.Vendor.Name
		q.Subject = &subject
	}
	return q
}
