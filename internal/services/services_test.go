package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vendorhub/internal/auth"
	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/escalation"
	"vendorhub/internal/notify"
	"vendorhub/internal/store"
	"vendorhub/internal/testutil"
)

var (
	admin  = &auth.Principal{UserID: 1, Username: "ops", Role: domain.RoleAdmin}
	vendor = &auth.Principal{UserID: 2, Username: "lotus", Role: domain.RoleVendor}
)

type fixture struct {
	store      *store.Store
	notifier   *testutil.RecordingNotifier
	dispatcher *notify.Dispatcher
	queries    *QueryService
	vendors    *VendorService
}

func escalationConfig() *config.EscalationConfig {
	return &config.EscalationConfig{
		SupportThresholdMinutes: 120,
		ManagerThresholdMinutes: 240,
		CEOStaleMinutes:         1440,
		BatchSize:               10,
		Concurrency:             2,
		SweepDeadlineSeconds:    10,
		NotifyTimeoutSeconds:    2,
		Tiers: map[string]config.TierRecipients{
			"CUSTOMER_SUPPORT": {Emails: []string{"support@vendorhub.test"}},
			"MANAGER":          {Emails: []string{"manager@vendorhub.test"}},
			"CEO":              {Emails: []string{"ceo@vendorhub.test"}},
		},
		AdminInquiryEmails: []string{"desk@vendorhub.test"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testutil.NewDB(t))
	n := testutil.NewRecordingNotifier()
	d := notify.NewDispatcher(n, time.Second, 16)
	dir := escalation.NewDirectory(escalationConfig())
	return &fixture{
		store:      st,
		notifier:   n,
		dispatcher: d,
		queries:    NewQueryService(st, d, dir),
		vendors:    NewVendorService(st),
	}
}

// drain waits for every dispatched notification
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.dispatcher.Drain(ctx))
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
