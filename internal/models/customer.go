package models

import "time"

// CustomerProfile is the durable record of a shopper, keyed by email.
// Every write is an upsert; rows are never deleted by this service.
type CustomerProfile struct {
	BaseModel
	Email         string     `gorm:"uniqueIndex" json:"email"`
	FullName      string     `json:"full_name"`
	Mobile        string     `json:"mobile"`
	SignupDate    time.Time  `json:"signup_date"`
	EmailVerified bool       `json:"email_verified"`
	SignupMethod  string     `json:"signup_method"`
	LoginCount    int64      `json:"login_count"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// LoginActivity is an append-only engagement log. Writes are best-effort and
// never fail the calling flow.
type LoginActivity struct {
	BaseModel
	Email         string `gorm:"index" json:"email"`
	Method        string `json:"method"`
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason"`
}
