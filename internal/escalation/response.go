package escalation

import (
	"time"

	"vendorhub/internal/domain"
	apperrors "vendorhub/pkg/errors"
)

// ResponseUpdate is an admin action on a query. Nil fields are left unchanged.
type ResponseUpdate struct {
	CustomerSupportResponded *bool               `json:"customerSupportResponded,omitempty"`
	ManagerResponded         *bool               `json:"managerResponded,omitempty"`
	CEOResponded             *bool               `json:"ceoResponded,omitempty"`
	Status                   *domain.QueryStatus `json:"status,omitempty"`
	Notes                    *string             `json:"notes,omitempty"`
}

// Empty reports whether u changes nothing
func (u ResponseUpdate) Empty() bool {
	return u.CustomerSupportResponded == nil && u.ManagerResponded == nil && u.CEOResponded == nil &&
		u.Status == nil && u.Notes == nil
}

// ApplyResponse applies u to q in place. Responded flags only ever go from
// false to true; a false for a flag already set is ignored. Status never moves
// backwards and RESOLVED is terminal.
func ApplyResponse(q *domain.Query, u ResponseUpdate, now time.Time) error {
	if u.Status != nil {
		if !u.Status.Valid() {
			return apperrors.Validation("invalid status %q", *u.Status)
		}
		if q.Status == domain.StatusResolved && *u.Status != domain.StatusResolved {
			return apperrors.Validation("query %d is resolved and cannot be reopened", q.ID)
		}
		if u.Status.Before(q.Status) {
			return apperrors.Validation("status cannot move from %s back to %s", q.Status, *u.Status)
		}
	}

	newlyResponded := false
	for _, f := range []struct {
		want *bool
		flag *bool
	}{
		{u.CustomerSupportResponded, &q.CustomerSupportResponded},
		{u.ManagerResponded, &q.ManagerResponded},
		{u.CEOResponded, &q.CEOResponded},
	} {
		if f.want != nil && *f.want && !*f.flag {
			*f.flag = true
			newlyResponded = true
		}
	}

	if newlyResponded {
		if q.RespondedAt == nil {
			at := now
			q.RespondedAt = &at
		}
		if u.Status == nil && q.Status != domain.StatusResolved {
			q.Status = domain.StatusResponded
		}
	}

	if u.Status != nil {
		if *u.Status == domain.StatusResolved && q.Status != domain.StatusResolved {
			at := now
			q.ResolvedAt = &at
		}
		q.Status = *u.Status
	}

	if u.Notes != nil {
		notes := *u.Notes
		q.Notes = &notes
	}

	checked := now
	q.LastEscalationCheck = &checked
	return nil
}
