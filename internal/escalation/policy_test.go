package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vendorhub/internal/domain"
)

var testThresholds = Thresholds{
	CustomerSupport: 2 * time.Hour,
	Manager:         4 * time.Hour,
	CEO:             24 * time.Hour,
}

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func pendingQuery() *domain.Query {
	return &domain.Query{
		ID:              1,
		Status:          domain.StatusPending,
		EscalationLevel: domain.LevelCustomerSupport,
		CreatedAt:       t0,
	}
}

func TestDecide_WithinSupportWindow(t *testing.T) {
	d := Decide(pendingQuery(), t0.Add(time.Minute), testThresholds)

	assert.Equal(t, NoAction, d.Action)
	assert.False(t, d.Stale)
	assert.Equal(t, time.Minute, d.Elapsed)
}

func TestDecide_ExactlyAtThresholdDoesNotEscalate(t *testing.T) {
	d := Decide(pendingQuery(), t0.Add(2*time.Hour), testThresholds)
	assert.Equal(t, NoAction, d.Action)
}

func TestDecide_SupportTimeoutEscalatesToManager(t *testing.T) {
	d := Decide(pendingQuery(), t0.Add(2*time.Hour+time.Second), testThresholds)

	assert.Equal(t, Escalate, d.Action)
	assert.Equal(t, domain.LevelManager, d.Next)
}

func TestDecide_RespondedTierIsNotEscalated(t *testing.T) {
	q := pendingQuery()
	q.CustomerSupportResponded = true
	q.Status = domain.StatusResponded

	d := Decide(q, t0.Add(48*time.Hour), testThresholds)
	assert.Equal(t, NoAction, d.Action)
}

func TestDecide_ManagerClockStartsAtEscalation(t *testing.T) {
	q := pendingQuery()
	q.EscalationLevel = domain.LevelManager
	at := t0.Add(3 * time.Hour)
	q.EscalatedToManagerAt = &at

	// 5h after creation but only 2h after reaching the manager
	assert.Equal(t, NoAction, Decide(q, t0.Add(5*time.Hour), testThresholds).Action)

	d := Decide(q, at.Add(4*time.Hour+time.Minute), testThresholds)
	assert.Equal(t, Escalate, d.Action)
	assert.Equal(t, domain.LevelCEO, d.Next)
}

func TestDecide_ManagerRespondedStaysPut(t *testing.T) {
	q := pendingQuery()
	q.EscalationLevel = domain.LevelManager
	q.ManagerResponded = true
	at := t0
	q.EscalatedToManagerAt = &at

	assert.Equal(t, NoAction, Decide(q, t0.Add(100*time.Hour), testThresholds).Action)
}

func TestDecide_CEOHasNoNextTier(t *testing.T) {
	q := pendingQuery()
	q.EscalationLevel = domain.LevelCEO
	at := t0.Add(time.Hour)
	q.EscalatedToCEOAt = &at

	fresh := Decide(q, at.Add(time.Hour), testThresholds)
	assert.Equal(t, NoAction, fresh.Action)
	assert.False(t, fresh.Stale)

	stale := Decide(q, at.Add(25*time.Hour), testThresholds)
	assert.Equal(t, NoAction, stale.Action)
	assert.True(t, stale.Stale)
	assert.Empty(t, stale.Next)
}

func TestDecide_CEORespondedIsNotStale(t *testing.T) {
	q := pendingQuery()
	q.EscalationLevel = domain.LevelCEO
	q.CEOResponded = true

	d := Decide(q, t0.Add(1000*time.Hour), testThresholds)
	assert.Equal(t, NoAction, d.Action)
	assert.False(t, d.Stale)
}

func TestDecide_ResolvedIsIgnored(t *testing.T) {
	q := pendingQuery()
	q.Status = domain.StatusResolved

	assert.Equal(t, NoAction, Decide(q, t0.Add(1000*time.Hour), testThresholds).Action)
}

func TestDecide_ClockSkewClampsElapsed(t *testing.T) {
	d := Decide(pendingQuery(), t0.Add(-time.Minute), testThresholds)

	assert.Equal(t, NoAction, d.Action)
	assert.Zero(t, d.Elapsed)
}
