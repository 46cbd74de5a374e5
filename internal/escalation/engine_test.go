package escalation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/notify"
	"vendorhub/internal/testutil"
)

// memStore keeps queries in memory with the same conditional update rules as
// the SQL store
type memStore struct {
	mu      sync.Mutex
	queries map[uint]*domain.Query
	events  []domain.EscalationEvent

	listErr     error
	escalateErr map[uint]error
	touchHook   func(ctx context.Context, id uint) error
}

func newMemStore(qs ...domain.Query) *memStore {
	s := &memStore{queries: make(map[uint]*domain.Query), escalateErr: make(map[uint]error)}
	for i := range qs {
		q := qs[i]
		s.queries[q.ID] = &q
	}
	return s
}

func (s *memStore) ListOpenQueries(ctx context.Context, afterID uint, limit int) ([]domain.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Query
	for _, q := range s.queries {
		if q.ID > afterID && q.Status != domain.StatusResolved {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) EscalateQuery(ctx context.Context, id uint, from, to domain.EscalationLevel, now time.Time, sweepID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.escalateErr[id]; err != nil {
		return false, err
	}
	q, ok := s.queries[id]
	if !ok || q.EscalationLevel != from || q.Responded(from) || q.Status == domain.StatusResolved || q.EscalatedAt(to) != nil {
		return false, nil
	}
	at := now
	q.EscalationLevel = to
	switch to {
	case domain.LevelManager:
		q.EscalatedToManagerAt = &at
	case domain.LevelCEO:
		q.EscalatedToCEOAt = &at
	}
	q.LastEscalationCheck = &at
	s.events = append(s.events, domain.EscalationEvent{QueryID: id, FromLevel: from, ToLevel: to, SweepID: sweepID, CreatedAt: now})
	return true, nil
}

func (s *memStore) TouchEscalationCheck(ctx context.Context, id uint, now time.Time) error {
	if s.touchHook != nil {
		if err := s.touchHook(ctx, id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at := now
	s.queries[id].LastEscalationCheck = &at
	return nil
}

func (s *memStore) get(id uint) domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.queries[id]
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func testDirectory() *Directory {
	return NewDirectory(&config.EscalationConfig{
		SupportThresholdMinutes: 120,
		ManagerThresholdMinutes: 240,
		CEOStaleMinutes:         1440,
		Tiers: map[string]config.TierRecipients{
			"CUSTOMER_SUPPORT": {Emails: []string{"support@vendorhub.test"}},
			"MANAGER":          {Emails: []string{"manager@vendorhub.test"}, WhatsApp: []string{"+919800000001"}},
			"CEO":              {Emails: []string{"ceo@vendorhub.test"}},
		},
	})
}

func newTestEngine(store Store, n notify.Notifier, opts Options) *Engine {
	d := notify.NewDispatcher(n, time.Second, 16)
	return NewEngine(store, d, testDirectory(), testThresholds, opts)
}

func TestRunSweep_NoActionInsideWindow(t *testing.T) {
	store := newMemStore(*pendingQuery())
	n := testutil.NewRecordingNotifier()
	engine := newTestEngine(store, n, Options{})

	now := t0.Add(time.Minute)
	report, err := engine.RunSweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Escalated)
	assert.False(t, report.Partial())
	assert.NotEmpty(t, report.SweepID)

	q := store.get(1)
	assert.Equal(t, domain.LevelCustomerSupport, q.EscalationLevel)
	require.NotNil(t, q.LastEscalationCheck)
	assert.Equal(t, now, *q.LastEscalationCheck)
	assert.Empty(t, n.Sent())
}

func TestRunSweep_EscalatesAndNotifiesNextTier(t *testing.T) {
	store := newMemStore(*pendingQuery())
	n := testutil.NewRecordingNotifier()
	engine := newTestEngine(store, n, Options{})

	now := t0.Add(2*time.Hour + time.Minute)
	report, err := engine.RunSweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Escalated)
	q := store.get(1)
	assert.Equal(t, domain.LevelManager, q.EscalationLevel)
	require.NotNil(t, q.EscalatedToManagerAt)
	assert.Equal(t, now, *q.EscalatedToManagerAt)

	sent := n.SentWith(notify.TemplateEscalation)
	require.Len(t, sent, 2)
	recipients := []string{sent[0].Recipient, sent[1].Recipient}
	assert.ElementsMatch(t, []string{"manager@vendorhub.test", "+919800000001"}, recipients)
	assert.Equal(t, "MANAGER", sent[0].Data["level"])
	assert.Equal(t, "CUSTOMER_SUPPORT", sent[0].Data["previousLevel"])
}

func TestRunSweep_SecondSweepIsIdempotent(t *testing.T) {
	store := newMemStore(*pendingQuery())
	n := testutil.NewRecordingNotifier()
	engine := newTestEngine(store, n, Options{})
	now := t0.Add(3 * time.Hour)

	_, err := engine.RunSweep(context.Background(), now)
	require.NoError(t, err)
	report, err := engine.RunSweep(context.Background(), now.Add(time.Second))
	require.NoError(t, err)

	assert.Zero(t, report.Escalated)
	assert.Equal(t, 1, store.eventCount())
	assert.Len(t, n.SentWith(notify.TemplateEscalation), 2)
	assert.Equal(t, domain.LevelManager, store.get(1).EscalationLevel)
}

func TestRunSweep_ConcurrentSweepsEscalateOnce(t *testing.T) {
	var qs []domain.Query
	for i := uint(1); i <= 20; i++ {
		q := pendingQuery()
		q.ID = i
		qs = append(qs, *q)
	}
	store := newMemStore(qs...)
	n := testutil.NewRecordingNotifier()
	now := t0.Add(3 * time.Hour)

	var wg sync.WaitGroup
	reports := make([]*SweepReport, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engine := newTestEngine(store, n, Options{BatchSize: 5, Concurrency: 4})
			r, err := engine.RunSweep(context.Background(), now)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.eventCount())
	assert.Equal(t, 20, reports[0].Escalated+reports[1].Escalated)
	assert.Len(t, n.SentWith(notify.TemplateEscalation), 40)
}

func TestRunSweep_CEOStaleIsReportedNotEscalated(t *testing.T) {
	q := pendingQuery()
	q.EscalationLevel = domain.LevelCEO
	at := t0.Add(6 * time.Hour)
	q.EscalatedToCEOAt = &at
	store := newMemStore(*q)
	n := testutil.NewRecordingNotifier()
	engine := newTestEngine(store, n, Options{})

	now := at.Add(30 * time.Hour)
	report, err := engine.RunSweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stale)
	assert.Zero(t, report.Escalated)
	assert.Equal(t, domain.LevelCEO, store.get(1).EscalationLevel)
	assert.Equal(t, now, *store.get(1).LastEscalationCheck)
	assert.Empty(t, n.Sent())
}

func TestRunSweep_PersistenceFailureIsIsolated(t *testing.T) {
	a, b := pendingQuery(), pendingQuery()
	b.ID = 2
	store := newMemStore(*a, *b)
	store.escalateErr[1] = errors.New("disk full")
	engine := newTestEngine(store, testutil.NewRecordingNotifier(), Options{})

	report, err := engine.RunSweep(context.Background(), t0.Add(3*time.Hour))
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, uint(1), report.Errors[0].QueryID)
	assert.Contains(t, report.Errors[0].Error, "disk full")
	assert.True(t, report.Partial())

	assert.Equal(t, domain.LevelCustomerSupport, store.get(1).EscalationLevel)
	assert.Equal(t, domain.LevelManager, store.get(2).EscalationLevel)
	assert.Equal(t, 1, report.Escalated)
}

func TestRunSweep_NotificationFailureKeepsEscalation(t *testing.T) {
	store := newMemStore(*pendingQuery())
	n := testutil.NewRecordingNotifier()
	n.FailFor("manager@vendorhub.test", errors.New("smtp down"))
	engine := newTestEngine(store, n, Options{})

	report, err := engine.RunSweep(context.Background(), t0.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 1, report.NotificationFailures)
	assert.Empty(t, report.Errors)
	assert.Equal(t, domain.LevelManager, store.get(1).EscalationLevel)
}

func TestRunSweep_LoadFailureIsAnError(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection refused")
	engine := newTestEngine(store, testutil.NewRecordingNotifier(), Options{})

	report, err := engine.RunSweep(context.Background(), t0)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRunSweep_DeadlineDefersRemainingQueries(t *testing.T) {
	var qs []domain.Query
	for i := uint(1); i <= 3; i++ {
		q := pendingQuery()
		q.ID = i
		qs = append(qs, *q)
	}
	store := newMemStore(qs...)
	store.touchHook = func(ctx context.Context, id uint) error {
		if id != 1 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}
	engine := newTestEngine(store, testutil.NewRecordingNotifier(), Options{Concurrency: 1, Deadline: 50 * time.Millisecond})

	report, err := engine.RunSweep(context.Background(), t0.Add(time.Minute))
	require.NoError(t, err)

	assert.True(t, report.DeadlineExceeded)
	assert.Equal(t, 2, report.Deferred)
	assert.Equal(t, 1, report.Scanned)
	assert.True(t, report.Partial())
}

func TestRunSweep_LevelsOnlyMoveForward(t *testing.T) {
	store := newMemStore(*pendingQuery())
	engine := newTestEngine(store, testutil.NewRecordingNotifier(), Options{})

	prev := domain.LevelCustomerSupport.Rank()
	for h := 0; h <= 48; h++ {
		_, err := engine.RunSweep(context.Background(), t0.Add(time.Duration(h)*time.Hour))
		require.NoError(t, err)

		rank := store.get(1).EscalationLevel.Rank()
		assert.GreaterOrEqual(t, rank, prev)
		prev = rank
	}

	q := store.get(1)
	assert.Equal(t, domain.LevelCEO, q.EscalationLevel)
	assert.Equal(t, 2, store.eventCount())
	assert.True(t, q.EscalatedToCEOAt.After(*q.EscalatedToManagerAt))
}

func TestRunSweep_BatchesCoverEveryQuery(t *testing.T) {
	var qs []domain.Query
	for i := uint(1); i <= 7; i++ {
		q := pendingQuery()
		q.ID = i
		qs = append(qs, *q)
	}
	store := newMemStore(qs...)
	engine := newTestEngine(store, testutil.NewRecordingNotifier(), Options{BatchSize: 3, Concurrency: 2})

	report, err := engine.RunSweep(context.Background(), t0.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 7, report.Scanned)
	assert.Equal(t, 7, report.Escalated)
}
