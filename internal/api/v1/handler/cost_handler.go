package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// IsAdminFunc decides whether a verified user may call administrative
// endpoints. It is supplied by the composition root; the cost services
// themselves never embed an admin list.
type IsAdminFunc func(userID string) bool

type CostHandler struct {
	costService   service.CostService
	reportService service.ReportService // nil when report export is disabled
	isAdmin       IsAdminFunc
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewCostHandler(costService service.CostService, reportService service.ReportService, isAdmin IsAdminFunc, v *validator.Validate, logger zerolog.Logger) *CostHandler {
	return &CostHandler{
		costService:   costService,
		reportService: reportService,
		isAdmin:       isAdmin,
		validate:      v,
		logger:        logger,
	}
}

// RegisterRoutes mounts v1 cost routes
func (h *CostHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/costs/me", authMw(http.HandlerFunc(h.getCosts)))
	mux.Handle("/costs/reports", authMw(http.HandlerFunc(h.exportReport)))
}

// getCosts godoc
// @Summary Get aggregated LLM costs
// @Description Aggregates the caller's cost ledger over the trailing period. With admin=true (admins only) the aggregate covers all users and includes a per-user breakdown.
// @Tags costs
// @Produce json
// @Param period_days query int false "Trailing window in days" default(30)
// @Param admin query bool false "Aggregate across all users (admins only)"
// @Success 200 {object} dto.CostSummaryResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 500 {string} string "failed to aggregate costs"
// @Router /costs/me [get]
func (h *CostHandler) getCosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	periodDays := 30
	if v := r.URL.Query().Get("period_days"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 && d <= 365 {
			periodDays = d
		}
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -periodDays)

	resp := dto.CostSummaryResponseDTO{
		Period:    strconv.Itoa(periodDays) + "d",
		StartDate: start,
		EndDate:   end,
	}

	if r.URL.Query().Get("admin") == "true" {
		if !h.isAdmin(userID) {
			http.Error(w, "Forbidden: admin privilege required", http.StatusForbidden)
			return
		}
		summary, err := h.costService.GetAllUsersCosts(r.Context(), start, end)
		if err != nil {
			http.Error(w, "Failed to aggregate costs", http.StatusInternalServerError)
			return
		}
		resp.TotalCost = summary.TotalCost
		resp.TotalTokens = summary.TotalTokens
		resp.ByModel = summary.ByModel
		resp.ByFeature = summary.ByFeature
		resp.ByUser = summary.ByUser
		resp.EntryCount = summary.EntryCount
	} else {
		summary, err := h.costService.GetUserCosts(r.Context(), userID, start, end)
		if err != nil {
			http.Error(w, "Failed to aggregate costs", http.StatusInternalServerError)
			return
		}
		resp.UserID = userID
		resp.TotalCost = summary.TotalCost
		resp.TotalTokens = summary.TotalTokens
		resp.ByModel = summary.ByModel
		resp.ByFeature = summary.ByFeature
		resp.EntryCount = summary.EntryCount
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// exportReport godoc
// @Summary Export an all-users cost report to object storage
// @Description Renders the all-users cost aggregate for the given range as CSV and uploads it. Admins only.
// @Tags costs
// @Accept json
// @Produce json
// @Param report body dto.CostReportRequestDTO true "Report date range"
// @Success 200 {object} dto.CostReportResponseDTO
// @Failure 400 {string} string "invalid request payload"
// @Failure 403 {string} string "forbidden"
// @Failure 503 {string} string "report export not configured"
// @Router /costs/reports [post]
func (h *CostHandler) exportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}
	if !h.isAdmin(userID) {
		http.Error(w, "Forbidden: admin privilege required", http.StatusForbidden)
		return
	}
	if h.reportService == nil {
		http.Error(w, "Cost report export is not configured", http.StatusServiceUnavailable)
		return
	}

	var req dto.CostReportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !req.EndDate.After(req.StartDate) {
		http.Error(w, "end_date must be after start_date", http.StatusBadRequest)
		return
	}

	key, err := h.reportService.ExportAllUsersCosts(r.Context(), req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to export cost report")
		http.Error(w, "Failed to export cost report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.CostReportResponseDTO{ObjectKey: key})
}
