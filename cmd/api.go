package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/pipeline"
)

// leadService is the slice of the pipeline the HTTP surface drives.
type leadService interface {
	ProcessEvent(ctx context.Context, ev model.Event) (*pipeline.ProcessResult, error)
	EnrichCompany(ctx context.Context, companyID int64) ([]model.Contact, error)
	GetCompany(ctx context.Context, id int64) (*model.CompanyDetail, error)
	ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.CompanySummary, error)
	ListContacts(ctx context.Context, id int64) ([]model.Contact, error)
	ListPages(ctx context.Context, id int64) ([]model.VisitedPage, error)
	SaveProfile(ctx context.Context, p *model.TargetProfile) error
	ActiveProfile(ctx context.Context) (*model.TargetProfile, error)
}

type api struct {
	svc       leadService
	directory func() string // nil when no directory session is attached
}

// newRouter builds the HTTP routes.
func newRouter(a *api, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.health)
		r.Post("/webhook/rb2b", a.webhook)

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", a.listCompanies)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getCompany)
				r.Post("/scrape-linkedin", a.enrichCompany)
				r.Get("/contacts", a.listContacts)
				r.Get("/pages", a.listPages)
			})
		})

		r.Get("/config/icp", a.getProfile)
		r.Post("/config/icp", a.saveProfile)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"backend": true, "database": true}

	profile, err := a.svc.ActiveProfile(r.Context())
	switch {
	case err == nil:
		status["icpConfigured"] = profile != nil
	case errors.Is(err, model.ErrConfigurationMissing):
		status["icpConfigured"] = false
	default:
		status["database"] = false
		status["icpConfigured"] = false
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error(), "status": status})
		return
	}
	if a.directory != nil {
		status["directory"] = a.directory()
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "status": status})
}

func (a *api) webhook(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := a.svc.ProcessEvent(r.Context(), ev)
	if err != nil {
		respondErr(w, "webhook processing failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Webhook processed successfully",
		"company_id": res.Company.ID,
		"created":    res.Created,
	})
}

func (a *api) listCompanies(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCompanyFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	companies, err := a.svc.ListCompanies(r.Context(), filter)
	if err != nil {
		respondErr(w, "list companies failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "companies": companies, "count": len(companies)})
}

func (a *api) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	detail, err := a.svc.GetCompany(r.Context(), id)
	if err != nil {
		respondErr(w, "get company failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "company": detail, "emails": detail.Emails})
}

func (a *api) enrichCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	contacts, err := a.svc.EnrichCompany(r.Context(), id)
	if err != nil {
		respondErr(w, "directory enrichment failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contacts": contacts,
		"message":  fmt.Sprintf("Found %d contacts matching your target personas", len(contacts)),
	})
}

func (a *api) listContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	contacts, err := a.svc.ListContacts(r.Context(), id)
	if err != nil {
		respondErr(w, "list contacts failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "contacts": contacts})
}

func (a *api) listPages(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	pages, err := a.svc.ListPages(r.Context(), id)
	if err != nil {
		respondErr(w, "list pages failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "pages": pages})
}

func (a *api) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.svc.ActiveProfile(r.Context())
	if errors.Is(err, model.ErrConfigurationMissing) {
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "config": nil})
		return
	}
	if err != nil {
		respondErr(w, "load profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "config": profile})
}

func (a *api) saveProfile(w http.ResponseWriter, r *http.Request) {
	var p model.TargetProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.svc.SaveProfile(r.Context(), &p); err != nil {
		respondErr(w, "save profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ICP configuration saved", "config": p})
}

func companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid company id")
		return 0, false
	}
	return id, true
}

func parseCompanyFilter(r *http.Request) (model.CompanyFilter, error) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.CompanyFilter{}, eris.Errorf("invalid limit %q", v)
		}
		limit = n
	}
	return companyFilterFromFlags(q.Get("tier"), q.Get("stage"), q.Get("persona_match"), limit)
}

// statusFor maps pipeline sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConfigurationMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, model.ErrInvalidEvent), errors.Is(err, model.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrSearcherUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error(msg, zap.Error(err))
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}
