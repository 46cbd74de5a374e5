package services

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"vendorhub/internal/auth"
	"vendorhub/internal/domain"
	"vendorhub/internal/escalation"
	"vendorhub/internal/metrics"
	"vendorhub/internal/store"
	apperrors "vendorhub/pkg/errors"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\+\-\(\)]+$`)
)

// ContactPayload is a public contact form submission
type ContactPayload struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Message string  `json:"message"`
}

// InquiryPayload is a customer message to a vendor
type InquiryPayload struct {
	VendorID uint    `json:"vendorId"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Message  string  `json:"message"`
}

// QueryService handles query intake and the admin response workflow
type QueryService struct {
	store      *store.Store
	dispatcher escalation.Dispatcher
	directory  *escalation.Directory
	now        func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(st *store.Store, dispatcher escalation.Dispatcher, directory *escalation.Directory) *QueryService {
	return &QueryService{
		store:      st,
		dispatcher: dispatcher,
		directory:  directory,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SubmitContact records a contact form submission and alerts the first tier
func (s *QueryService) SubmitContact(ctx context.Context, p *ContactPayload) (*domain.Query, error) {
	log.Printf("[QUERY] Contact submission: name=%s, email=%s", strings.TrimSpace(p.Name), strings.TrimSpace(p.Email))

	if err := validateContact(p.Name, p.Email, p.Phone, p.Message); err != nil {
		log.Printf("[QUERY] Contact submission rejected: %v", err)
		return nil, err
	}
	if p.Subject != nil && len(strings.TrimSpace(*p.Subject)) > 200 {
		return nil, apperrors.Validation("subject must not exceed 200 characters")
	}

	q := &domain.Query{
		Source:          domain.SourceContact,
		Name:            strings.TrimSpace(p.Name),
		Email:           strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:           trimmedOrNil(p.Phone),
		Subject:         trimmedOrNil(p.Subject),
		Message:         strings.TrimSpace(p.Message),
		Status:          domain.StatusPending,
		EscalationLevel: domain.LevelCustomerSupport,
		CreatedAt:       s.now(),
	}

	if err := s.store.CreateQuery(ctx, q); err != nil {
		log.Printf("[QUERY] Contact submission failed: %v", err)
		return nil, err
	}

	log.Printf("[QUERY] Query created: id=%d, source=%s", q.ID, q.Source)
	metrics.RecordQueryIntake(string(q.Source))

	msgs := append(s.directory.NewQueryMessages(q), s.directory.AcknowledgementMessage(q))
	s.dispatcher.Dispatch(ctx, msgs...)

	return q, nil
}

// SubmitInquiry records a vendor inquiry, projects it into a Query and alerts
// the support tier and the inquiry desk. A failed projection is left for
// ReconcileInquiries.
func (s *QueryService) SubmitInquiry(ctx context.Context, p *InquiryPayload) (*domain.Inquiry, error) {
	log.Printf("[QUERY] Inquiry submission: vendor=%d, email=%s", p.VendorID, strings.TrimSpace(p.Email))

	if p.VendorID == 0 {
		return nil, apperrors.Validation("vendorId is required")
	}
	if err := validateContact(p.Name, p.Email, p.Phone, p.Message); err != nil {
		log.Printf("[QUERY] Inquiry submission rejected: %v", err)
		return nil, err
	}

	vendor, err := s.store.GetVendor(ctx, p.VendorID)
	if err != nil {
		log.Printf("[QUERY] Inquiry submission failed: vendor %d: %v", p.VendorID, err)
		return nil, err
	}

	inquiry := &domain.Inquiry{
		VendorID:  vendor.ID,
		Name:      strings.TrimSpace(p.Name),
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:     trimmedOrNil(p.Phone),
		Message:   strings.TrimSpace(p.Message),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateInquiry(ctx, inquiry); err != nil {
		log.Printf("[QUERY] Inquiry submission failed: %v", err)
		return nil, err
	}
	inquiry.Vendor = vendor
	log.Printf("[QUERY] Inquiry created: id=%d, vendor=%d", inquiry.ID, vendor.ID)

	msgs := s.directory.AdminInquiryMessages(inquiry)
	if q, err := s.project(ctx, inquiry); err != nil {
		log.Printf("[QUERY] Warning: projection of inquiry %d failed, left for reconciliation: %v", inquiry.ID, err)
	} else {
		msgs = append(msgs, s.directory.NewQueryMessages(q)...)
	}
	s.dispatcher.Dispatch(ctx, msgs...)

	return inquiry, nil
}

// project creates the Query tracking escalation for an inquiry
func (s *QueryService) project(ctx context.Context, inquiry *domain.Inquiry) (*domain.Query, error) {
	q := inquiry.Projection()
	if err := s.store.CreateQuery(ctx, q); err != nil {
		return nil, err
	}
	q.Vendor = inquiry.Vendor
	metrics.RecordQueryIntake(string(q.Source))
	log.Printf("[QUERY] Query created: id=%d, source=%s, inquiry=%d", q.ID, q.Source, inquiry.ID)
	return q, nil
}

// List returns queries matching f, newest first
func (s *QueryService) List(ctx context.Context, p *auth.Principal, f store.QueryFilter) ([]domain.Query, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.Validation("invalid status %q", f.Status)
	}
	if f.EscalationLevel != "" && !f.EscalationLevel.Valid() {
		return nil, apperrors.Validation("invalid escalation level %q", f.EscalationLevel)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperrors.Validation("limit and offset must not be negative")
	}
	return s.store.ListQueries(ctx, f)
}

// Get returns one query with its vendor
func (s *QueryService) Get(ctx context.Context, p *auth.Principal, id uint) (*domain.Query, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.GetQuery(ctx, id)
}

// Events returns the escalation history of a query
func (s *QueryService) Events(ctx context.Context, p *auth.Principal, id uint) ([]domain.EscalationEvent, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.store.GetQuery(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEscalationEvents(ctx, id)
}

// Respond records an admin response on a query
func (s *QueryService) Respond(ctx context.Context, p *auth.Principal, id uint, u escalation.ResponseUpdate) (*domain.Query, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if u.Empty() {
		return nil, apperrors.Validation("no fields to update")
	}

	q, err := s.store.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := escalation.ApplyResponse(q, u, s.now()); err != nil {
		log.Printf("[QUERY] Response to query %d rejected: %v", id, err)
		return nil, err
	}
	if err := s.store.SaveResponse(ctx, q, u.Notes != nil); err != nil {
		log.Printf("[QUERY] Response to query %d failed: %v", id, err)
		return nil, err
	}

	// Escalation columns may have moved since the read
	updated, err := s.store.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("[QUERY] Query %d updated by %s: status=%s level=%s", id, p.Username, updated.Status, updated.EscalationLevel)
	return updated, nil
}

// validateContact checks the fields shared by contact and inquiry submissions
func validateContact(name, email string, phone *string, message string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.Validation("name is required")
	}
	if len(name) > 100 {
		return apperrors.Validation("name must not exceed 100 characters")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Validation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperrors.Validation("invalid email address")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return apperrors.Validation("message is required")
	}
	if len(message) > 5000 {
		return apperrors.Validation("message must not exceed 5000 characters")
	}

	if phone != nil && strings.TrimSpace(*phone) != "" {
		ph := strings.TrimSpace(*phone)
		if !phoneRegex.MatchString(ph) || len(ph) < 10 || len(ph) > 20 {
			return apperrors.Validation("invalid phone number format")
		}
	}

	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
