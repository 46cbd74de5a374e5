package services

import (
	"context"
	"strings"
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

func validContact() *ContactPayload {
	return &ContactPayload{
		Name:    "  Asha Rao ",
		Email:   "Asha@Example.com",
		Phone:   strPtr("+91 98000 00000"),
		Subject: strPtr("Venue availability"),
		Message: "Is the lawn free on 12 December?",
	}
}

func TestSubmitContact_PersistsPendingQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)
	f.drain(t)

	stored, err := f.store.GetQuery(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, domain.LevelCustomerSupport, stored.EscalationLevel)
	assert.Equal(t, domain.SourceContact, stored.Source)
	assert.Equal(t, "Asha Rao", stored.Name)
	assert.Equal(t, "asha@example.com", stored.Email)
	assert.Equal(t, "Venue availability", *stored.Subject)
	assert.False(t, stored.CustomerSupportResponded || stored.ManagerResponded || stored.CEOResponded)

	support := f.notifier.SentWith(notify.TemplateNewQuery)
	require.Len(t, support, 1)
	assert.Equal(t, "support@vendorhub.test", support[0].Recipient)

	ack := f.notifier.SentWith(notify.TemplateQueryReceived)
	require.Len(t, ack, 1)
	assert.Equal(t, "asha@example.com", ack[0].Recipient)
}

func TestSubmitContact_ValidationPersistsNothing(t *testing.T) {
	cases := map[string]func(p *ContactPayload){
		"missing name":    func(p *ContactPayload) { p.Name = " " },
		"missing email":   func(p *ContactPayload) { p.Email = "" },
		"bad email":       func(p *ContactPayload) { p.Email = "not-an-email" },
		"missing message": func(p *ContactPayload) { p.Message = "" },
		"long message":    func(p *ContactPayload) { p.Message = strings.Repeat("x", 5001) },
		"long name":       func(p *ContactPayload) { p.Name = strings.Repeat("x", 101) },
		"bad phone":       func(p *ContactPayload) { p.Phone = strPtr("call me") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			p := validContact()
			mutate(p)

			_, err := f.queries.SubmitContact(context.Background(), p)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)

			list, err := f.store.ListQueries(context.Background(), store.QueryFilter{})
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestSubmitContact_NotificationFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.notifier.FailFor("support@vendorhub.test", assert.AnError)

	q, err := f.queries.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	f.drain(t)

	assert.NotZero(t, q.ID)
	select {
	case o := <-f.dispatcher.Failures():
		assert.Equal(t, "support@vendorhub.test", o.Message.Recipient)
	default:
		t.Fatal("expected a published failure")
	}
}

func seedVendor(t *testing.T, f *fixture) *domain.Vendor {
	t.Helper()
	v, err := f.vendors.Create(context.Background(), &VendorPayload{Name: "Lotus Decor", Category: "Decor", City: "Pune"})
	require.NoError(t, err)
	return v
}

func TestSubmitInquiry_ProjectsQueryAndNotifiesDesk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := seedVendor(t, f)

	inquiry, err := f.queries.SubmitInquiry(ctx, &InquiryPayload{
		VendorID: v.ID,
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Message:  "Do you cover Lonavala?",
	})
	require.NoError(t, err)
	f.drain(t)

	require.NotNil(t, inquiry.Vendor)
	assert.Equal(t, "Lotus Decor", inquiry.Vendor.Name)

	list, err := f.store.ListQueries(ctx, store.QueryFilter{Source: domain.SourceInquiry})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inquiry.ID, *list[0].InquiryID)
	assert.Equal(t, v.ID, *list[0].VendorID)
	assert.Equal(t, domain.StatusPending, list[0].Status)

	desk := f.notifier.SentWith(notify.TemplateAdminInquiry)
	require.Len(t, desk, 1)
	assert.Equal(t, "desk@vendorhub.test", desk[0].Recipient)
	assert.Equal(t, "Lotus Decor", desk[0].Data["vendorName"])
	assert.Len(t, f.notifier.SentWith(notify.TemplateNewQuery), 1)
}

func TestSubmitInquiry_UnknownVendor(t *testing.T) {
	f := newFixture(t)
	_, err := f.queries.SubmitInquiry(context.Background(), &InquiryPayload{
		VendorID: 404, Name: "Ravi", Email: "ravi@example.com", Message: "hello",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSubmitInquiry_MissingVendorID(t *testing.T) {
	f := newFixture(t)
	_, err := f.queries.SubmitInquiry(context.Background(), &InquiryPayload{
		Name: "Ravi", Email: "ravi@example.com", Message: "hello",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestReconcileInquiries_CreatesOneProjectionPerOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := seedVendor(t, f)

	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	orphan := &domain.Inquiry{VendorID: v.ID, Name: "Meera", Email: "meera@example.com", Message: "Quote please", CreatedAt: created}
	require.NoError(t, f.store.CreateInquiry(ctx, orphan))

	n, err := f.queries.ReconcileInquiries(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.queries.ReconcileInquiries(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	f.drain(t)

	list, err := f.store.ListQueries(ctx, store.QueryFilter{Source: domain.SourceInquiry})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.WithinDuration(t, created, list[0].CreatedAt, time.Second)
	assert.Equal(t, "Inquiry for Lotus Decor", *list[0].Subject)
}

func TestAdminOperations_RequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	_, err = f.queries.List(ctx, vendor, store.QueryFilter{})
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = f.queries.Get(ctx, nil, q.ID)
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = f.queries.Events(ctx, vendor, q.ID)
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = f.queries.Respond(ctx, vendor, q.ID, escalation.ResponseUpdate{CustomerSupportResponded: boolPtr(true)})
	assert.True(t, apperrors.IsUnauthorized(err))

	stored, err := f.store.GetQuery(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, stored.CustomerSupportResponded)
}

func TestList_RejectsUnknownFilters(t *testing.T) {
	f := newFixture(t)
	_, err := f.queries.List(context.Background(), admin, store.QueryFilter{Status: "OPEN"})
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.queries.List(context.Background(), admin, store.QueryFilter{EscalationLevel: "CTO"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRespond_MarksRespondedAndPreventsEscalation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	updated, err := f.queries.Respond(ctx, admin, q.ID, escalation.ResponseUpdate{CustomerSupportResponded: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResponded, updated.Status)
	assert.True(t, updated.CustomerSupportResponded)
	assert.NotNil(t, updated.RespondedAt)
	assert.NotNil(t, updated.LastEscalationCheck)

	applied, err := f.store.EscalateQuery(ctx, q.ID, domain.LevelCustomerSupport, domain.LevelManager, time.Now().Add(3*time.Hour), "sweep")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRespond_ResolveThenReopenIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	resolved := domain.StatusResolved
	updated, err := f.queries.Respond(ctx, admin, q.ID, escalation.ResponseUpdate{Status: &resolved, Notes: strPtr("booked")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, "booked", *updated.Notes)

	pending := domain.StatusPending
	_, err = f.queries.Respond(ctx, admin, q.ID, escalation.ResponseUpdate{Status: &pending})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRespond_FlagOnlyUpdateKeepsNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	_, err = f.queries.Respond(ctx, admin, q.ID, escalation.ResponseUpdate{Notes: strPtr("left a voicemail")})
	require.NoError(t, err)

	updated, err := f.queries.Respond(ctx, admin, q.ID, escalation.ResponseUpdate{CustomerSupportResponded: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.CustomerSupportResponded)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "left a voicemail", *updated.Notes)
}

func TestRespond_EmptyUpdateAndMissingQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.queries.Respond(ctx, admin, 1, escalation.ResponseUpdate{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.queries.Respond(ctx, admin, 999, escalation.ResponseUpdate{ManagerResponded: boolPtr(true)})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEvents_ReturnsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.queries.SubmitContact(ctx, validContact())
	require.NoError(t, err)

	_, err = f.store.EscalateQuery(ctx, q.ID, domain.LevelCustomerSupport, domain.LevelManager, time.Now().UTC(), "sweep-1")
	require.NoError(t, err)

	events, err := f.queries.Events(ctx, admin, q.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.LevelManager, events[0].ToLevel)

	_, err = f.queries.Events(ctx, admin, 999)
	assert.True(t, apperrors.IsNotFound(err))
}
