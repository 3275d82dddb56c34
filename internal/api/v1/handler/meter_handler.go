package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MeterHandler is the internal ingest seam: feature services report one LLM
// invocation here, which bumps the feature's usage counter and appends a
// cost ledger entry. The two writes are independent; there is no
// cross-entity transaction.
type MeterHandler struct {
	usageService service.UsageService
	costService  service.CostService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewMeterHandler(usageService service.UsageService, costService service.CostService, v *validator.Validate, logger zerolog.Logger) *MeterHandler {
	return &MeterHandler{
		usageService: usageService,
		costService:  costService,
		validate:     v,
		logger:       logger,
	}
}

// RegisterRoutes mounts the ingest endpoint behind the internal shared-secret middleware.
func (h *MeterHandler) RegisterRoutes(mux *http.ServeMux, internalMw func(http.Handler) http.Handler) {
	mux.Handle("/internal/llm-usage", internalMw(http.HandlerFunc(h.recordLLMUsage)))
}

func (h *MeterHandler) recordLLMUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.LLMUsageEventDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.usageService.RecordFeatureUsage(r.Context(), req.UserID, req.Feature, req.Units); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrUnknownFeature), errors.Is(err, service.ErrInvalidAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to record usage", http.StatusInternalServerError)
		}
		return
	}

	entry := &model.CostEntry{
		UserID:           req.UserID,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		TotalTokens:      req.TotalTokens,
		Feature:          req.Feature,
	}
	// The counter is already bumped at this point. A malformed entry is the
	// reporter's bug and gets a 400; a transient ledger failure is handled
	// inside RecordCost via the retry queue and does not fail this request.
	if err := h.costService.RecordCost(r.Context(), entry); err != nil {
		if errors.Is(err, service.ErrInvalidEntry) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to record cost entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
