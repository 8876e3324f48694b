package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clotilde/admin-console/internal/adminapi"
	"github.com/clotilde/admin-console/internal/browser"
	"github.com/clotilde/admin-console/internal/csrf"
	"github.com/clotilde/admin-console/internal/dashboard"
	"github.com/clotilde/admin-console/internal/export"
	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/render"
)

const (
	csrfField  = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

// Handler serves the web console
type Handler struct {
	svc    *dashboard.Service
	tokens *csrf.Manager
}

// NewHandler creates a new console handler
func NewHandler(svc *dashboard.Service, tokens *csrf.Manager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Routes mounts the console on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/logs", h.LogsFragment)
	r.Get("/api/logs", h.LogsJSON)
	r.Get("/export", h.Export)

	r.Group(func(r chi.Router) {
		r.Use(h.verifyCSRF)

		r.Post("/logs/next", h.NextPage)
		r.Post("/logs/prev", h.PrevPage)
		r.Post("/logs/filters", h.SetFilters)
		r.Post("/logs/clear", h.ClearFilters)
		r.Post("/logs/expand", h.ToggleExpand)
		r.Post("/logs/reload", h.Reload)
		r.Post("/refresh", h.SetAutoRefresh)
		r.Post("/config", h.SaveConfig)
	})
}

// Index renders the full dashboard
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.svc.EnsureLoaded(r.Context())

	token, ok := h.issueToken(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.WritePage(&buf, h.svc.Page(token)); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// LogsFragment renders the log table without the surrounding page
func (h *Handler) LogsFragment(w http.ResponseWriter, r *http.Request) {
	token, ok := h.issueToken(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.WriteLogs(&buf, h.svc.View().Panel(), token); err != nil {
		log.Error().Err(err).Msg("Failed to render logs")
		http.Error(w, "Failed to render logs", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// LogsJSON returns the browser state and the current render model
func (h *Handler) LogsJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		State browser.State    `json:"state"`
		Logs  render.LogsPanel `json:"logs"`
	}{
		State: h.svc.Browser().Snapshot(),
		Logs:  h.svc.View().Panel(),
	})
}

// NextPage advances the log table
func (h *Handler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.svc.Browser().NextPage(r.Context())
	redirectHome(w, r)
}

// PrevPage moves the log table back
func (h *Handler) PrevPage(w http.ResponseWriter, r *http.Request) {
	h.svc.Browser().PrevPage(r.Context())
	redirectHome(w, r)
}

// SetFilters applies the filter form
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	h.svc.Browser().SetFilters(r.Context(), parseFilters(r))
	redirectHome(w, r)
}

// ClearFilters resets all filters
func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.svc.Browser().ClearFilters(r.Context())
	redirectHome(w, r)
}

// ToggleExpand opens or closes one row's detail
func (h *Handler) ToggleExpand(w http.ResponseWriter, r *http.Request) {
	id := r.PostFormValue("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}
	h.svc.Browser().ToggleExpand(id)
	redirectHome(w, r)
}

// Reload refetches the current page and the stats
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.svc.Browser().LoadPage(r.Context())
	h.svc.LoadStats(r.Context())
	redirectHome(w, r)
}

// SetAutoRefresh turns auto refresh on or off
func (h *Handler) SetAutoRefresh(w http.ResponseWriter, r *http.Request) {
	h.svc.SetAutoRefresh(r.PostFormValue("enabled") == "true")
	redirectHome(w, r)
}

// SaveConfig saves the runtime config form upstream
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	cfg := parseConfig(r, h.svc.Config())

	if err := h.svc.SaveConfig(r.Context(), cfg); err != nil {
		h.svc.SetFlash("error", "Error: "+errorMessage(err))
	} else {
		h.svc.SetFlash("success", "Configuration saved successfully")
	}
	redirectHome(w, r)
}

// Export downloads the visible page
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries := h.svc.Browser().Entries()

	var buf bytes.Buffer
	if err := export.Write(&buf, format, entries); err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("Export failed")
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.FileName(time.Now())))
	w.Write(buf.Bytes())

	log.Info().Str("format", string(format)).Int("rows", len(entries)).Msg("Logs exported")
}

func (h *Handler) verifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(csrfHeader)
		if token == "" {
			token = r.PostFormValue(csrfField)
		}
		if err := h.tokens.Validate(token); err != nil {
			log.Warn().Str("path", r.URL.Path).Msg("Rejected request with invalid CSRF token")
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) issueToken(w http.ResponseWriter) (string, bool) {
	token, err := h.tokens.Issue()
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue CSRF token")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return "", false
	}
	return token, true
}

func parseFilters(r *http.Request) models.FilterSet {
	return models.FilterSet{
		Model:     strings.TrimSpace(r.PostFormValue("model")),
		Status:    strings.TrimSpace(r.PostFormValue("status")),
		StartDate: strings.TrimSpace(r.PostFormValue("start_date")),
		EndDate:   strings.TrimSpace(r.PostFormValue("end_date")),
	}
}

// parseConfig reads the config form. Fields the form does not edit are
// carried over from current.
func parseConfig(r *http.Request, current *models.RuntimeConfig) models.RuntimeConfig {
	var cfg models.RuntimeConfig
	if current != nil {
		cfg.CategoryModels = current.CategoryModels
	}

	cfg.BaseSystemPrompt = r.PostFormValue("base_system_prompt")
	cfg.StandardModel = strings.TrimSpace(r.PostFormValue("standard_model"))
	cfg.PremiumModel = strings.TrimSpace(r.PostFormValue("premium_model"))

	cfg.CategoryPrompts = make(map[string]string, len(models.Categories))
	for _, category := range models.Categories {
		cfg.CategoryPrompts[category] = r.PostFormValue("category_prompt_" + category)
	}

	enabled := r.PostFormValue("perplexity_enabled") == "true"
	cfg.PerplexityEnabled = &enabled
	return cfg
}

func errorMessage(err error) string {
	var cfgErr *models.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Message
	}
	var statusErr *adminapi.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Detail()
	}
	return err.Error()
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
