package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type UsageHandler struct {
	usageService service.UsageService
	logger       zerolog.Logger
}

func NewUsageHandler(usageService service.UsageService, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{usageService: usageService, logger: logger}
}

// RegisterRoutes mounts v1 usage routes
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/usage/me", authMw(http.HandlerFunc(h.getUsage)))
}

func (h *UsageHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	usage, err := h.usageService.GetUsage(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			// A store failure must surface as an error, never as an empty
			// snapshot that would mask an exhausted quota.
			http.Error(w, "Failed to retrieve usage", http.StatusInternalServerError)
		}
		return
	}

	// Email verification state comes from the identity provider's verified
	// claims, not from the usage store.
	emailVerified := false
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		emailVerified = claims.EmailVerified
	}

	resp := dto.UsageResponseDTO{
		Plan:                    usage.Plan,
		ChatUsedToday:           usage.ChatUsedToday,
		VideosGeneratedThisWeek: usage.VideosGeneratedThisWeek,
		VoiceMinutesThisWeek:    usage.VoiceMinutesThisWeek,
		ImagesGeneratedThisWeek: usage.ImagesGeneratedThisWeek,
		PlanExpiresAt:           usage.PlanExpiresAt,
		EmailVerified:           emailVerified,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
