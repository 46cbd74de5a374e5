package services

import (
	"context"
	"log"
)

const defaultReconcileLimit = 100

// ReconcileInquiries creates the missing Query projection of up to limit
// inquiries. It returns how many projections were created.
func (s *QueryService) ReconcileInquiries(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultReconcileLimit
	}

	orphans, err := s.store.ListInquiriesWithoutQuery(ctx, limit)
	if err != nil {
		log.Printf("[QUERY] Reconciliation failed: %v", err)
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	created := 0
	for i := range orphans {
		inquiry := &orphans[i]
		q, err := s.project(ctx, inquiry)
		if err != nil {
			// a concurrent reconcile may have won the unique inquiry_id
			log.Printf("[QUERY] Reconciliation of inquiry %d failed: %v", inquiry.ID, err)
			continue
		}
		s.dispatcher.Dispatch(ctx, s.directory.NewQueryMessages(q)...)
		created++
	}

	log.Printf("[QUERY] Reconciliation created %d of %d missing projections", created, len(orphans))
	return created, nil
}
