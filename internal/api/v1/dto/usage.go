package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageResponseDTO is the current-moment usage snapshot returned to clients.
// EmailVerified is passed through from the identity provider's verified
// claims, not from the usage store.
type UsageResponseDTO struct {
	Plan                    string          `json:"plan"`
	ChatUsedToday           int             `json:"chat_used_today"`
	VideosGeneratedThisWeek int             `json:"videos_generated_this_week"`
	VoiceMinutesThisWeek    decimal.Decimal `json:"voice_minutes_this_week"`
	ImagesGeneratedThisWeek int             `json:"images_generated_this_week"`
	PlanExpiresAt           *time.Time      `json:"plan_expires_at,omitempty"`
	EmailVerified           bool            `json:"email_verified"`
}
