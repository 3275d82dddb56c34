package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// CronHandler exposes the reset sweeps to the external time-based trigger.
// Whether it is time to reset is the trigger's decision; these endpoints
// sweep unconditionally on every call.
type CronHandler struct {
	resetService service.ResetService
	logger       zerolog.Logger
}

func NewCronHandler(resetService service.ResetService, logger zerolog.Logger) *CronHandler {
	return &CronHandler{resetService: resetService, logger: logger}
}

// RegisterRoutes mounts the cron endpoints behind the shared-secret middleware.
func (h *CronHandler) RegisterRoutes(mux *http.ServeMux, secretMw func(http.Handler) http.Handler) {
	mux.Handle("/cron/reset-daily", secretMw(http.HandlerFunc(h.resetDaily)))
	mux.Handle("/cron/reset-weekly", secretMw(http.HandlerFunc(h.resetWeekly)))
}

// resetDaily godoc
// @Summary Reset all daily usage counters
// @Description Zeroes chat_used_today for every user. Idempotent; invoked once per day by the external scheduler.
// @Tags cron
// @Produce json
// @Success 200 {object} dto.CronResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {object} dto.CronResponseDTO
// @Router /cron/reset-daily [post]
func (h *CronHandler) resetDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := h.resetService.ResetDailyUsage(r.Context())
	if err != nil {
		writeCronResponse(w, http.StatusInternalServerError, dto.CronResponseDTO{
			Success:   false,
			Error:     "failed to reset daily usage counters",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeCronResponse(w, http.StatusOK, dto.CronResponseDTO{
		Success:   true,
		Count:     &count,
		Message:   "daily usage counters reset",
		Timestamp: time.Now().UTC(),
	})
}

// resetWeekly godoc
// @Summary Reset all weekly usage counters
// @Description Zeroes the weekly video, voice and image counters for every user. Idempotent; invoked once per week by the external scheduler.
// @Tags cron
// @Produce json
// @Success 200 {object} dto.CronResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {object} dto.CronResponseDTO
// @Router /cron/reset-weekly [post]
func (h *CronHandler) resetWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := h.resetService.ResetWeeklyUsage(r.Context())
	if err != nil {
		writeCronResponse(w, http.StatusInternalServerError, dto.CronResponseDTO{
			Success:   false,
			Error:     "failed to reset weekly usage counters",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeCronResponse(w, http.StatusOK, dto.CronResponseDTO{
		Success:   true,
		Count:     &count,
		Message:   "weekly usage counters reset",
		Timestamp: time.Now().UTC(),
	})
}

func writeCronResponse(w http.ResponseWriter, status int, resp dto.CronResponseDTO) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
