package domain

import "time"

// EscalationEvent records one tier change made by a sweep
type EscalationEvent struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	QueryID   uint            `gorm:"not null;index" json:"queryId"`
	FromLevel EscalationLevel `gorm:"size:32;not null" json:"fromLevel"`
	ToLevel   EscalationLevel `gorm:"size:32;not null" json:"toLevel"`
	SweepID   string          `gorm:"size:36;index" json:"sweepId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// TableName specifies the table name for EscalationEvent
func (EscalationEvent) TableName() string {
	return "escalation_events"
}
