package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"vendorhub/internal/auth"
	"vendorhub/internal/domain"
	"vendorhub/internal/escalation"
	"vendorhub/internal/services"
	"vendorhub/internal/store"
	apperrors "vendorhub/pkg/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.svc.Health.Check(r.Context())
	status := http.StatusOK
	if res.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(r.Context(), w, status, res)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	res, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

type contactResponse struct {
	Success bool   `json:"success"`
	QueryID uint   `json:"queryId"`
	Message string `json:"message"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var p services.ContactPayload
	if err := decode(r, &p); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	q, err := s.svc.Queries.SubmitContact(r.Context(), &p)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, contactResponse{
		Success: true,
		QueryID: q.ID,
		Message: "Thank you for contacting us! We'll get back to you soon.",
	})
}

func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	var p services.InquiryPayload
	if err := decode(r, &p); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	inquiry, err := s.svc.Queries.SubmitInquiry(r.Context(), &p)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, inquiry)
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	values := r.URL.Query()
	f := store.QueryFilter{
		Status:          domain.QueryStatus(values.Get("status")),
		EscalationLevel: domain.EscalationLevel(values.Get("escalationLevel")),
		Source:          domain.QuerySource(values.Get("source")),
	}
	var err error
	if f.Limit, err = intParam(values.Get("limit")); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if f.Offset, err = intParam(values.Get("offset")); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	queries, err := s.svc.Queries.List(r.Context(), p, f)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, queries)
}

func (s *Server) handleGetQuery(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, err := s.queryID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	q, err := s.svc.Queries.Get(r.Context(), p, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, q)
}

type respondRequest struct {
	CustomerSupportResponded *bool               `json:"customerSupportResponded"`
	ManagerResponded         *bool               `json:"managerResponded"`
	CEOResponded             *bool               `json:"ceoResponded"`
	Status                   *domain.QueryStatus `json:"status"`
	Notes                    *string             `json:"notes"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, err := s.queryID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	var req respondRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	q, err := s.svc.Queries.Respond(r.Context(), p, id, escalation.ResponseUpdate{
		CustomerSupportResponded: req.CustomerSupportResponded,
		ManagerResponded:         req.ManagerResponded,
		CEOResponded:             req.CEOResponded,
		Status:                   req.Status,
		Notes:                    req.Notes,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, q)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, err := s.queryID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	events, err := s.svc.Queries.Events(r.Context(), p, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, events)
}

type escalationCheckResponse struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Timestamp string                  `json:"timestamp"`
	Report    *escalation.SweepReport `json:"report"`
}

func (s *Server) handleEscalationCheck(w http.ResponseWriter, r *http.Request) {
	if !s.cronAuthorized(r) {
		log.Printf("[CRON] Rejected unauthorized escalation check from %s", r.RemoteAddr)
		s.writeError(r.Context(), w, apperrors.Unauthorized())
		return
	}

	now := s.now()
	report, err := s.svc.Cron.EscalationCheck(r.Context(), now)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	message := "Escalation check completed"
	if report.Partial() {
		message = "Escalation check completed with deferred or failed queries"
	}
	writeJSON(r.Context(), w, http.StatusOK, escalationCheckResponse{
		Success:   true,
		Message:   message,
		Timestamp: now.Format(time.RFC3339),
		Report:    report,
	})
}

func (s *Server) queryID(r *http.Request) (uint, error) {
	raw := s.mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid query id %q", raw)
	}
	return uint(id), nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("invalid integer %q", raw)
	}
	return n, nil
}
