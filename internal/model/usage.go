package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Counter identifies one of the integer rolling counters on a user's usage
// row. Voice minutes are tracked separately because they are fractional.
type Counter string

const (
	CounterChatUsedToday  Counter = "chat_used_today"
	CounterVideosThisWeek Counter = "videos_generated_this_week"
	CounterImagesThisWeek Counter = "images_generated_this_week"
)

// Feature tags identify which product surface triggered an LLM call.
const (
	FeatureChat  = "chat"
	FeatureImage = "image"
	FeatureVoice = "voice"
	FeatureVideo = "video"
)

// UserUsage represents a user's current usage counters and plan passthrough.
// The row is the authoritative copy; nothing in this service caches it.
type UserUsage struct {
	UserID                  string          `db:"user_id" json:"user_id"`
	Plan                    string          `db:"plan" json:"plan"`
	PlanExpiresAt           *time.Time      `db:"plan_expires_at" json:"plan_expires_at,omitempty"`
	ChatUsedToday           int             `db:"chat_used_today" json:"chat_used_today"`
	VideosGeneratedThisWeek int             `db:"videos_generated_this_week" json:"videos_generated_this_week"`
	VoiceMinutesThisWeek    decimal.Decimal `db:"voice_minutes_this_week" json:"voice_minutes_this_week"`
	ImagesGeneratedThisWeek int             `db:"images_generated_this_week" json:"images_generated_this_week"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at" json:"updated_at"`
}
