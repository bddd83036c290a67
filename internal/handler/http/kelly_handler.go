package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/cypherlabdev/kelly-calculator-service/internal/cache"
	"github.com/cypherlabdev/kelly-calculator-service/internal/metrics"
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
	"github.com/cypherlabdev/kelly-calculator-service/internal/render"
	"github.com/cypherlabdev/kelly-calculator-service/internal/service"
	"github.com/cypherlabdev/kelly-calculator-service/internal/worksheet"
	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

// KellyHandlerConfig holds HTTP handler limits and defaults
type KellyHandlerConfig struct {
	MaxUploadBytes  int64
	RateLimit       float64 // Requests per second on write endpoints
	RateBurst       int
	FractionalRatio float64
	Bankroll        decimal.Decimal // Default bankroll for stake amounts
}

// KellyHandler handles HTTP requests for the Kelly worksheet
type KellyHandler struct {
	service  *service.KellyService
	config   KellyHandlerConfig
	limiter  *rate.Limiter
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewKellyHandler creates a new Kelly HTTP handler
func NewKellyHandler(service *service.KellyService, config KellyHandlerConfig, logger zerolog.Logger) *KellyHandler {
	return &KellyHandler{
		service:  service,
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		validate: validator.New(),
		logger:   logger.With().Str("component", "kelly_handler").Logger(),
	}
}

// ParseRequest is the body of POST /api/v1/worksheet/parse
type ParseRequest struct {
	Text     string `json:"text"`
	Bankroll string `json:"bankroll,omitempty"`
}

// KellyRequest is the body of POST /api/v1/kelly
type KellyRequest struct {
	Odds        *float64 `json:"odds" validate:"required"`
	Probability *float64 `json:"probability" validate:"required,gte=0,lte=1"`
}

// KellyResponse is a single stake calculation; fractions are null when the price is not above 1
type KellyResponse struct {
	Odds        float64  `json:"odds"`
	Probability float64  `json:"probability"`
	Fraction    *float64 `json:"fraction"`
	Fractional  *float64 `json:"fractional"`
	Favorable   bool     `json:"favorable"`
}

// WorksheetResponse is the display model returned by worksheet commands
type WorksheetResponse struct {
	Command       string               `json:"command"`
	Summary       string               `json:"summary"`
	Matches       int                  `json:"matches"`
	Skipped       int                  `json:"skipped"`
	HeaderSkipped bool                 `json:"header_skipped"`
	Rows          []render.Row         `json:"rows"`
	Evaluations   []*models.Evaluation `json:"evaluations"`
}

// RegisterRoutes registers HTTP routes with the provided router
func (h *KellyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Post("/worksheet/parse", h.handleParse)
			r.Post("/worksheet/upload", h.handleUpload)
		})
		r.Get("/worksheet/sample", h.handleSample)
		r.Post("/kelly", h.handleKelly)
		r.Get("/matches", h.handleListMatches)
		r.Get("/matches/{match}", h.handleGetMatch)
	})
}

// handleParse handles POST /api/v1/worksheet/parse
func (h *KellyHandler) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, ok := h.newTable(w, req.Bankroll)
	if !ok {
		return
	}

	h.runCommand(w, r, table, worksheet.ParseText{Text: req.Text})
}

// handleUpload handles POST /api/v1/worksheet/upload (multipart field "file")
func (h *KellyHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		h.errorResponse(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	table, ok := h.newTable(w, r.FormValue("bankroll"))
	if !ok {
		return
	}

	h.runCommand(w, r, table, worksheet.UploadFile{Filename: header.Filename, Body: file})
}

// handleSample handles GET /api/v1/worksheet/sample
func (h *KellyHandler) handleSample(w http.ResponseWriter, r *http.Request) {
	table, ok := h.newTable(w, r.URL.Query().Get("bankroll"))
	if !ok {
		return
	}
	h.runCommand(w, r, table, worksheet.AddSample{})
}

// handleKelly handles POST /api/v1/kelly
func (h *KellyHandler) handleKelly(w http.ResponseWriter, r *http.Request) {
	var req KellyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := KellyResponse{Odds: *req.Odds, Probability: *req.Probability}
	if f, ok := kelly.Fraction(*req.Odds, *req.Probability); ok {
		fractional := f * h.config.FractionalRatio
		resp.Fraction = &f
		resp.Fractional = &fractional
		resp.Favorable = f > 0
	}

	h.jsonResponse(w, http.StatusOK, resp)
}

// handleListMatches handles GET /api/v1/matches
func (h *KellyHandler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	evs, err := h.service.ListEvaluations(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list evaluations")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve evaluations")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":       len(evs),
		"evaluations": evs,
	})
}

// handleGetMatch handles GET /api/v1/matches/{match}
func (h *KellyHandler) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := url.PathUnescape(chi.URLParam(r, "match"))
	if err != nil || match == "" {
		h.errorResponse(w, http.StatusBadRequest, "match is required")
		return
	}

	ev, err := h.service.GetEvaluation(r.Context(), match)
	if errors.Is(err, cache.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "evaluation not found")
		return
	} else if err != nil {
		h.logger.Error().Err(err).Str("match", match).Msg("failed to retrieve evaluation")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve evaluation")
		return
	}

	h.jsonResponse(w, http.StatusOK, ev)
}

// runCommand applies a worksheet command and writes the resulting table
func (h *KellyHandler) runCommand(w http.ResponseWriter, r *http.Request, table render.Table, cmd worksheet.Command) {
	next, result, err := h.service.Run(r.Context(), table, cmd)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, worksheet.ErrEmptyInput):
			h.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &maxBytesErr):
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "upload too large")
		default:
			h.logger.Error().Err(err).Str("command", cmd.Name()).Msg("worksheet command failed")
			h.errorResponse(w, http.StatusInternalServerError, "failed to process odds")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, WorksheetResponse{
		Command:       result.Command,
		Summary:       next.Summary,
		Matches:       result.Matches,
		Skipped:       result.Skipped,
		HeaderSkipped: result.HeaderSkipped,
		Rows:          next.Rows,
		Evaluations:   result.Evaluations,
	})
}

// newTable starts an empty table, with the request bankroll overriding the default
func (h *KellyHandler) newTable(w http.ResponseWriter, bankroll string) (render.Table, bool) {
	table := render.Table{Rows: []render.Row{}, Bankroll: h.config.Bankroll}
	if bankroll == "" {
		return table, true
	}

	amount, err := decimal.NewFromString(bankroll)
	if err != nil || amount.IsNegative() {
		h.errorResponse(w, http.StatusBadRequest, "bankroll must be a non-negative number")
		return table, false
	}
	table.Bankroll = amount
	return table, true
}

// rateLimit rejects requests above the configured rate
func (h *KellyHandler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			metrics.RecordRateLimited()
			h.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonResponse writes a JSON response
func (h *KellyHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *KellyHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
