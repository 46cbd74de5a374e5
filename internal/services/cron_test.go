package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorhub/internal/domain"
	"vendorhub/internal/escalation"
	"vendorhub/internal/notify"
	"vendorhub/internal/store"
	apperrors "vendorhub/pkg/errors"
)

func TestEscalationCheck_ReconcilesThenSweeps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := seedVendor(t, f)

	created := time.Now().UTC().Add(-3 * time.Hour)
	orphan := &domain.Inquiry{VendorID: v.ID, Name: "Meera", Email: "meera@example.com", Message: "Quote please", CreatedAt: created}
	require.NoError(t, f.store.CreateInquiry(ctx, orphan))

	cfg := escalationConfig()
	engine := escalation.NewEngine(f.store, f.dispatcher, escalation.NewDirectory(cfg), escalation.ThresholdsFromConfig(cfg), escalation.OptionsFromConfig(cfg))
	cron := NewCronService(engine, f.queries)

	report, err := cron.EscalationCheck(ctx, time.Now().UTC())
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Escalated)

	list, err := f.store.ListQueries(ctx, store.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.LevelManager, list[0].EscalationLevel)
	assert.Len(t, f.notifier.SentWith(notify.TemplateEscalation), 1)
}

func TestHealthCheck(t *testing.T) {
	ok := NewHealthService("Vendorhub API", func() error { return nil }, nil)
	res := ok.Check(context.Background())
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, "Vendorhub API", res.Service)

	down := NewHealthService("Vendorhub API", func() error { return errors.New("refused") }, nil)
	res = down.Check(context.Background())
	assert.Equal(t, "unhealthy", res.Status)
	assert.Equal(t, "unreachable", res.Database)
}

func TestVendorCreate_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.vendors.Create(context.Background(), &VendorPayload{Name: " "})
	assert.Error(t, err)

	v, err := f.vendors.Create(context.Background(), &VendorPayload{Name: "Lotus", Category: " Decor ", Email: "HI@Lotus.test"})
	require.NoError(t, err)
	assert.Equal(t, "decor", v.Category)
	assert.Equal(t, "hi@lotus.test", v.Email)
}

func TestVendorGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.vendors.Create(ctx, &VendorPayload{Name: "Lotus", Category: "decor"})
	require.NoError(t, err)

	got, err := f.vendors.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lotus", got.Name)

	_, err = f.vendors.Get(ctx, v.ID+100)
	assert.True(t, apperrors.IsNotFound(err))
}
