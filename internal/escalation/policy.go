package escalation

import (
	"time"

	"vendorhub/internal/config"
	"vendorhub/internal/domain"
)

// Thresholds is how long each tier may leave a query unanswered. CEO is the
// age after which a top-tier query is reported stale.
type Thresholds struct {
	CustomerSupport time.Duration
	Manager         time.Duration
	CEO             time.Duration
}

// ThresholdsFromConfig converts the configured minutes
func ThresholdsFromConfig(cfg *config.EscalationConfig) Thresholds {
	return Thresholds{
		CustomerSupport: time.Duration(cfg.SupportThresholdMinutes) * time.Minute,
		Manager:         time.Duration(cfg.ManagerThresholdMinutes) * time.Minute,
		CEO:             time.Duration(cfg.CEOStaleMinutes) * time.Minute,
	}
}

// For returns the threshold of a tier
func (t Thresholds) For(level domain.EscalationLevel) time.Duration {
	switch level {
	case domain.LevelCustomerSupport:
		return t.CustomerSupport
	case domain.LevelManager:
		return t.Manager
	case domain.LevelCEO:
		return t.CEO
	}
	return 0
}

// Action is what the policy wants done with a query
type Action int

const (
	NoAction Action = iota
	Escalate
)

func (a Action) String() string {
	if a == Escalate {
		return "escalate"
	}
	return "no_action"
}

// Decision is the outcome of evaluating one query
type Decision struct {
	Action  Action
	Next    domain.EscalationLevel
	Stale   bool
	Elapsed time.Duration
}

// Decide evaluates q at now. It has no side effects.
func Decide(q *domain.Query, now time.Time, th Thresholds) Decision {
	if q.Status == domain.StatusResolved {
		return Decision{Action: NoAction}
	}

	since := q.CreatedAt
	if at := q.EscalatedAt(q.EscalationLevel); at != nil && at.After(since) {
		since = *at
	}
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}

	d := Decision{Action: NoAction, Elapsed: elapsed}
	if q.Responded(q.EscalationLevel) || elapsed <= th.For(q.EscalationLevel) {
		return d
	}

	next, ok := q.EscalationLevel.Next()
	if !ok {
		d.Stale = true
		return d
	}
	d.Action = Escalate
	d.Next = next
	return d
}
