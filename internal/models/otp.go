package models

import "time"

// Challenge purposes. An email address may hold one live challenge per purpose.
const (
	PurposeSignup        = "signup"
	PurposePasswordReset = "password_reset"
)

// ValidPurpose reports whether p is a known challenge purpose.
func ValidPurpose(p string) bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

// OTPChallenge keeps track of verification codes sent to shoppers.
// Only a bcrypt hash of the code is stored; the plaintext exists just long
// enough to be handed to the mail channel.
type OTPChallenge struct {
	BaseModel
	Destination string     `gorm:"index:idx_otp_dest_purpose" json:"destination"`
	Purpose     string     `gorm:"index:idx_otp_dest_purpose" json:"purpose"`
	CodeHash    string     `json:"-"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Consumed    bool       `json:"consumed"`
	ConsumedAt  *time.Time `json:"consumed_at"`
}
