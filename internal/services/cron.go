package services

import (
	"context"
	"log"
	"time"

	"vendorhub/internal/escalation"
)

// CronService runs the scheduled escalation check
type CronService struct {
	engine  *escalation.Engine
	queries *QueryService
}

// NewCronService creates a new cron service
func NewCronService(engine *escalation.Engine, queries *QueryService) *CronService {
	return &CronService{engine: engine, queries: queries}
}

// EscalationCheck repairs missing inquiry projections, then runs one sweep.
// A failed reconciliation does not stop the sweep.
func (s *CronService) EscalationCheck(ctx context.Context, now time.Time) (*escalation.SweepReport, error) {
	if _, err := s.queries.ReconcileInquiries(ctx, defaultReconcileLimit); err != nil {
		log.Printf("[CRON] Warning: reconciliation skipped: %v", err)
	}
	return s.engine.RunSweep(ctx, now)
}
