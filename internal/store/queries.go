package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vendorhub/internal/domain"
)

// errNotApplied aborts a conditional update transaction that matched no row
var errNotApplied = errors.New("conditional update not applied")

// QueryFilter narrows the admin query listing
type QueryFilter struct {
	Status          domain.QueryStatus
	EscalationLevel domain.EscalationLevel
	Source          domain.QuerySource
	Limit           int
	Offset          int
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var (
	respondedColumn = map[domain.EscalationLevel]string{
		domain.LevelCustomerSupport: "customer_support_responded",
		domain.LevelManager:         "manager_responded",
		domain.LevelCEO:             "ceo_responded",
	}
	escalatedAtColumn = map[domain.EscalationLevel]string{
		domain.LevelManager: "escalated_to_manager_at",
		domain.LevelCEO:     "escalated_to_ceo_at",
	}
)

// CreateQuery inserts a new query. Associations are never written through it.
func (s *Store) CreateQuery(ctx context.Context, q *domain.Query) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(q).Error
	observe("create_query", start, err)
	return wrap(err, "query")
}

// GetQuery loads a query with its vendor joined
func (s *Store) GetQuery(ctx context.Context, id uint) (*domain.Query, error) {
	start := time.Now()
	var q domain.Query
	err := s.db.WithContext(ctx).Preload("Vendor").First(&q, id).Error
	observe("get_query", start, err)
	if err != nil {
		return nil, wrap(err, "query")
	}
	return &q, nil
}

// ListQueries returns queries newest first, projected with their vendor
func (s *Store) ListQueries(ctx context.Context, f QueryFilter) ([]domain.Query, error) {
	start := time.Now()

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	tx := s.db.WithContext(ctx).Preload("Vendor").Order("created_at DESC").Order("id DESC")
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.EscalationLevel != "" {
		tx = tx.Where("escalation_level = ?", f.EscalationLevel)
	}
	if f.Source != "" {
		tx = tx.Where("source = ?", f.Source)
	}

	var queries []domain.Query
	err := tx.Offset(f.Offset).Limit(limit).Find(&queries).Error
	observe("list_queries", start, err)
	if err != nil {
		return nil, wrap(err, "queries")
	}
	return queries, nil
}

// ListOpenQueries returns up to limit unresolved queries with id > afterID in id order
func (s *Store) ListOpenQueries(ctx context.Context, afterID uint, limit int) ([]domain.Query, error) {
	start := time.Now()
	var queries []domain.Query
	err := s.db.WithContext(ctx).
		Where("status <> ? AND id > ?", domain.StatusResolved, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&queries).Error
	observe("list_open_queries", start, err)
	if err != nil {
		return nil, wrap(err, "open queries")
	}
	return queries, nil
}

// EscalateQuery moves a query from one tier to the next if, and only if, it is
// still at from, unanswered at from, unresolved, and has never reached to. The
// tier change and its audit event commit together. applied is false when
// another writer changed the row first.
func (s *Store) EscalateQuery(ctx context.Context, id uint, from, to domain.EscalationLevel, now time.Time, sweepID string) (applied bool, err error) {
	start := time.Now()
	defer func() { observe("escalate_query", start, err) }()

	respondedCol, ok := respondedColumn[from]
	if !ok {
		return false, fmt.Errorf("unknown escalation level %q", from)
	}
	escalatedCol, ok := escalatedAtColumn[to]
	if !ok {
		return false, fmt.Errorf("cannot escalate to %q", to)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Query{}).
			Where("id = ? AND escalation_level = ? AND status <> ?", id, from, domain.StatusResolved).
			Where(respondedCol+" = ?", false).
			Where(escalatedCol + " IS NULL").
			Updates(map[string]any{
				"escalation_level":      to,
				escalatedCol:            now,
				"last_escalation_check": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotApplied
		}
		return tx.Create(&domain.EscalationEvent{
			QueryID:   id,
			FromLevel: from,
			ToLevel:   to,
			SweepID:   sweepID,
			CreatedAt: now,
		}).Error
	})
	if errors.Is(err, errNotApplied) {
		return false, nil
	}
	if err != nil {
		return false, wrap(err, "query")
	}
	return true, nil
}

// TouchEscalationCheck stamps last_escalation_check without any other change
func (s *Store) TouchEscalationCheck(ctx context.Context, id uint, now time.Time) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Model(&domain.Query{}).
		Where("id = ?", id).
		Update("last_escalation_check", now).Error
	observe("touch_escalation_check", start, err)
	return wrap(err, "query")
}

// SaveResponse merges the admin-owned columns of q into the stored row.
// Flags only turn on, first timestamps are kept, status never moves backwards
// and RESOLVED is terminal, so a write from a stale read cannot undo a newer
// response. Notes are written only when writeNotes is set. Escalation columns
// are left alone so a concurrent sweep is never overwritten.
func (s *Store) SaveResponse(ctx context.Context, q *domain.Query, writeNotes bool) error {
	start := time.Now()
	updates := map[string]any{
		"customer_support_responded": gorm.Expr("customer_support_responded OR ?", q.CustomerSupportResponded),
		"manager_responded":          gorm.Expr("manager_responded OR ?", q.ManagerResponded),
		"ceo_responded":              gorm.Expr("ceo_responded OR ?", q.CEOResponded),
		"responded_at":               gorm.Expr("COALESCE(responded_at, ?)", q.RespondedAt),
		"resolved_at":                gorm.Expr("COALESCE(resolved_at, ?)", q.ResolvedAt),
		"last_escalation_check":      q.LastEscalationCheck,
	}
	switch q.Status {
	case domain.StatusResolved:
		updates["status"] = domain.StatusResolved
	case domain.StatusResponded:
		updates["status"] = gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", domain.StatusResolved, domain.StatusResponded)
	}
	if writeNotes {
		updates["notes"] = q.Notes
	}

	res := s.db.WithContext(ctx).Model(&domain.Query{}).
		Where("id = ?", q.ID).
		Updates(updates)
	observe("save_response", start, res.Error)
	if res.Error != nil {
		return wrap(res.Error, "query")
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound, "query")
	}
	return nil
}

// ListEscalationEvents returns the tier history of a query, oldest first
func (s *Store) ListEscalationEvents(ctx context.Context, queryID uint) ([]domain.EscalationEvent, error) {
	start := time.Now()
	var events []domain.EscalationEvent
	err := s.db.WithContext(ctx).Where("query_id = ?", queryID).Order("id ASC").Find(&events).Error
	observe("list_escalation_events", start, err)
	if err != nil {
		return nil, wrap(err, "escalation events")
	}
	return events, nil
}
