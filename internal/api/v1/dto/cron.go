package dto

import "time"

// CronResponseDTO is the result shape expected by the external scheduler.
type CronResponseDTO struct {
	Success   bool      `json:"success"`
	Count     *int64    `json:"count,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
