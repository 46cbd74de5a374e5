package domain

import (
	"time"

	"gorm.io/gorm"
)

// QueryStatus is the lifecycle status of a support query
type QueryStatus string

const (
	StatusPending   QueryStatus = "PENDING"
	StatusResponded QueryStatus = "RESPONDED"
	StatusResolved  QueryStatus = "RESOLVED"
)

// Valid reports whether s is a known status
func (s QueryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResponded, StatusResolved:
		return true
	}
	return false
}

func (s QueryStatus) rank() int {
	switch s {
	case StatusResponded:
		return 1
	case StatusResolved:
		return 2
	}
	return 0
}

// Before reports whether s comes strictly earlier than other in the lifecycle
func (s QueryStatus) Before(other QueryStatus) bool {
	return s.rank() < other.rank()
}

// EscalationLevel is the responder tier currently accountable for a query
type EscalationLevel string

const (
	LevelCustomerSupport EscalationLevel = "CUSTOMER_SUPPORT"
	LevelManager         EscalationLevel = "MANAGER"
	LevelCEO             EscalationLevel = "CEO"
)

// Levels lists the tiers in escalation order
var Levels = []EscalationLevel{LevelCustomerSupport, LevelManager, LevelCEO}

// Valid reports whether l is a known tier
func (l EscalationLevel) Valid() bool {
	return l.Rank() >= 0
}

// Rank returns the position of l in the escalation order, or -1
func (l EscalationLevel) Rank() int {
	for i, lvl := range Levels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Next returns the tier above l. ok is false at the top tier.
func (l EscalationLevel) Next() (next EscalationLevel, ok bool) {
	r := l.Rank()
	if r < 0 || r+1 >= len(Levels) {
		return "", false
	}
	return Levels[r+1], true
}

// QuerySource is the logical origin of a query
type QuerySource string

const (
	SourceContact QuerySource = "contact"
	SourceInquiry QuerySource = "inquiry"
)

// Query is the unit of escalation. Contact form submissions and vendor
// inquiries are both represented by one Query row.
type Query struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	Source  QuerySource `gorm:"size:16;not null;index" json:"source"`
	Name    string      `gorm:"not null" json:"name"`
	Email   string      `gorm:"not null;index" json:"email"`
	Phone   *string     `json:"phone,omitempty"`
	Subject *string     `json:"subject,omitempty"`
	Message string      `gorm:"type:text;not null" json:"message"`

	Status          QueryStatus     `gorm:"size:16;not null;index" json:"status"`
	EscalationLevel EscalationLevel `gorm:"size:32;not null;index" json:"escalationLevel"`

	CustomerSupportResponded bool `gorm:"not null;default:false" json:"customerSupportResponded"`
	ManagerResponded         bool `gorm:"not null;default:false" json:"managerResponded"`
	CEOResponded             bool `gorm:"column:ceo_responded;not null;default:false" json:"ceoResponded"`

	CreatedAt            time.Time  `gorm:"not null;index" json:"createdAt"`
	RespondedAt          *time.Time `json:"respondedAt,omitempty"`
	EscalatedToManagerAt *time.Time `json:"escalatedToManagerAt,omitempty"`
	EscalatedToCEOAt     *time.Time `gorm:"column:escalated_to_ceo_at" json:"escalatedToCEOAt,omitempty"`
	ResolvedAt           *time.Time `json:"resolvedAt,omitempty"`
	LastEscalationCheck  *time.Time `json:"lastEscalationCheck,omitempty"`
	Notes                *string    `gorm:"type:text" json:"notes,omitempty"`

	InquiryID *uint    `gorm:"uniqueIndex" json:"inquiryId,omitempty"`
	VendorID  *uint    `gorm:"index" json:"vendorId,omitempty"`
	Inquiry   *Inquiry `gorm:"foreignKey:InquiryID" json:"-"`
	Vendor    *Vendor  `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

// TableName specifies the table name for Query
func (Query) TableName() string {
	return "queries"
}

// BeforeCreate hook
func (q *Query) BeforeCreate(tx *gorm.DB) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	if q.EscalationLevel == "" {
		q.EscalationLevel = LevelCustomerSupport
	}
	if q.Source == "" {
		q.Source = SourceContact
	}
	return nil
}

// Responded reports the responded flag of the given tier
func (q *Query) Responded(level EscalationLevel) bool {
	switch level {
	case LevelCustomerSupport:
		return q.CustomerSupportResponded
	case LevelManager:
		return q.ManagerResponded
	case LevelCEO:
		return q.CEOResponded
	}
	return false
}

// EscalatedAt returns the time the query reached the given tier, if it did
func (q *Query) EscalatedAt(level EscalationLevel) *time.Time {
	switch level {
	case LevelManager:
		return q.EscalatedToManagerAt
	case LevelCEO:
		return q.EscalatedToCEOAt
	}
	return nil
}

// Origin returns the tagged origin of the query
func (q *Query) Origin() Origin {
	if q.Source == SourceInquiry && q.InquiryID != nil {
		o := InquiryOrigin{InquiryID: *q.InquiryID}
		if q.VendorID != nil {
			o.VendorID = *q.VendorID
		}
		if q.Vendor != nil {
			o.VendorName = q.Vendor.Name
		}
		return o
	}
	return ContactOrigin{}
}

// Origin is where a query came from: ContactOrigin or InquiryOrigin
type Origin interface {
	Source() QuerySource
}

// ContactOrigin marks a query submitted through the public contact form
type ContactOrigin struct{}

func (ContactOrigin) Source() QuerySource { return SourceContact }

// InquiryOrigin marks a query projected from a vendor inquiry
type InquiryOrigin struct {
	InquiryID  uint
	VendorID   uint
	VendorName string
}

func (InquiryOrigin) Source() QuerySource { return SourceInquiry }
