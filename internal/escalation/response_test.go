package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorhub/internal/domain"
	apperrors "vendorhub/pkg/errors"
)

func boolPtr(b bool) *bool { return &b }

func statusPtr(s domain.QueryStatus) *domain.QueryStatus { return &s }

func TestApplyResponse_FirstResponseSetsRespondedAt(t *testing.T) {
	q := pendingQuery()
	now := t0.Add(30 * time.Minute)

	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(true)}, now))

	assert.True(t, q.CustomerSupportResponded)
	assert.Equal(t, domain.StatusResponded, q.Status)
	require.NotNil(t, q.RespondedAt)
	assert.Equal(t, now, *q.RespondedAt)
	assert.Equal(t, now, *q.LastEscalationCheck)
}

func TestApplyResponse_RepeatKeepsRespondedAt(t *testing.T) {
	q := pendingQuery()
	first := t0.Add(30 * time.Minute)
	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(true)}, first))

	later := first.Add(time.Hour)
	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(true)}, later))

	assert.Equal(t, first, *q.RespondedAt)
	assert.Equal(t, later, *q.LastEscalationCheck)
}

func TestApplyResponse_SecondTierKeepsFirstRespondedAt(t *testing.T) {
	q := pendingQuery()
	first := t0.Add(time.Minute)
	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(true)}, first))
	require.NoError(t, ApplyResponse(q, ResponseUpdate{ManagerResponded: boolPtr(true)}, first.Add(time.Hour)))

	assert.True(t, q.ManagerResponded)
	assert.Equal(t, first, *q.RespondedAt)
}

func TestApplyResponse_FlagsNeverReset(t *testing.T) {
	q := pendingQuery()
	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(true)}, t0))
	require.NoError(t, ApplyResponse(q, ResponseUpdate{CustomerSupportResponded: boolPtr(false)}, t0.Add(time.Hour)))

	assert.True(t, q.CustomerSupportResponded)
	assert.Equal(t, domain.StatusResponded, q.Status)
}

func TestApplyResponse_ExplicitStatusWinsOverForcedResponded(t *testing.T) {
	q := pendingQuery()
	now := t0.Add(time.Hour)

	require.NoError(t, ApplyResponse(q, ResponseUpdate{
		CEOResponded: boolPtr(true),
		Status:       statusPtr(domain.StatusResolved),
	}, now))

	assert.Equal(t, domain.StatusResolved, q.Status)
	assert.Equal(t, now, *q.ResolvedAt)
	assert.Equal(t, now, *q.RespondedAt)
}

func TestApplyResponse_ResolveWithoutFlags(t *testing.T) {
	q := pendingQuery()
	now := t0.Add(time.Hour)

	require.NoError(t, ApplyResponse(q, ResponseUpdate{Status: statusPtr(domain.StatusResolved)}, now))

	assert.Equal(t, domain.StatusResolved, q.Status)
	require.NotNil(t, q.ResolvedAt)
	assert.False(t, q.ResolvedAt.Before(q.CreatedAt))
	assert.Nil(t, q.RespondedAt)
}

func TestApplyResponse_ResolvedIsTerminal(t *testing.T) {
	q := pendingQuery()
	require.NoError(t, ApplyResponse(q, ResponseUpdate{Status: statusPtr(domain.StatusResolved)}, t0))

	err := ApplyResponse(q, ResponseUpdate{Status: statusPtr(domain.StatusPending)}, t0.Add(time.Hour))
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, domain.StatusResolved, q.Status)
}

func TestApplyResponse_StatusCannotRegress(t *testing.T) {
	q := pendingQuery()
	q.Status = domain.StatusResponded

	err := ApplyResponse(q, ResponseUpdate{Status: statusPtr(domain.StatusPending)}, t0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestApplyResponse_InvalidStatus(t *testing.T) {
	err := ApplyResponse(pendingQuery(), ResponseUpdate{Status: statusPtr("CLOSED")}, t0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestApplyResponse_LateResponseOnResolvedKeepsStatus(t *testing.T) {
	q := pendingQuery()
	require.NoError(t, ApplyResponse(q, ResponseUpdate{Status: statusPtr(domain.StatusResolved)}, t0))
	require.NoError(t, ApplyResponse(q, ResponseUpdate{ManagerResponded: boolPtr(true)}, t0.Add(time.Minute)))

	assert.Equal(t, domain.StatusResolved, q.Status)
	assert.True(t, q.ManagerResponded)
}

func TestApplyResponse_NotesOverwrite(t *testing.T) {
	q := pendingQuery()
	first, second := "called back", ""

	require.NoError(t, ApplyResponse(q, ResponseUpdate{Notes: &first}, t0))
	assert.Equal(t, "called back", *q.Notes)

	require.NoError(t, ApplyResponse(q, ResponseUpdate{Notes: &second}, t0))
	assert.Equal(t, "", *q.Notes)
	assert.Equal(t, domain.StatusPending, q.Status)
}
