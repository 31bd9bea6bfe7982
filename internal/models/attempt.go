package models

import "time"

// AccessAttempt records one admin login attempt.
type AccessAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	UserAgent string    `json:"userAgent"`
	IP        string    `json:"ip"`
	SessionID string    `json:"sessionId"`
}
