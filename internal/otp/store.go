package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/example/kirana/internal/models"
	"github.com/example/kirana/internal/utils"
)

// Verification failure reasons. Handlers report all three identically to the
// client; they are distinguished here for logging only.
var (
	ErrNotFound = errors.New("no live challenge for destination")
	ErrExpired  = errors.New("challenge expired")
	ErrMismatch = errors.New("code mismatch")
)

const codeTTL = 10 * time.Minute

// Store issues and verifies one-time passcodes backed by the primary store.
type Store struct {
	db      *gorm.DB
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewStore constructs an OTP Store with the fixed 10 minute code TTL.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, ttl: codeTTL, nowFunc: time.Now}
}

// Challenge couples the persisted row with the plaintext code so the caller
// can hand the code to the mail channel. The code is never stored.
type Challenge struct {
	models.OTPChallenge
	Code string
}

// Issue creates a fresh 6-digit challenge for (destination, purpose) and
// invalidates any prior live challenge for the same key. The supersede and the
// insert run in one transaction so two concurrent issues cannot both stay
// valid.
func (s *Store) Issue(destination, purpose string) (*Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	hash, err := utils.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	now := s.nowFunc()
	challenge := models.OTPChallenge{
		Destination: destination,
		Purpose:     purpose,
		CodeHash:    hash,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Expire any previous live challenge for this key.
		if err := tx.Model(&models.OTPChallenge{}).
			Where("destination = ? AND purpose = ? AND consumed = ? AND expires_at > ?",
				destination, purpose, false, now).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&challenge).Error
	})
	if err != nil {
		return nil, fmt.Errorf("issue challenge: %w", err)
	}

	return &Challenge{OTPChallenge: challenge, Code: code}, nil
}

// Verify checks the submitted code against the newest challenge for the key
// and consumes it on success. Consumption is a conditional update so a code
// accepted once can never be accepted again.
func (s *Store) Verify(destination, purpose, code string) error {
	now := s.nowFunc()

	var challenge models.OTPChallenge
	err := s.db.Where("destination = ? AND purpose = ?", destination, purpose).
		Order("issued_at desc").
		First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load challenge: %w", err)
	}

	if challenge.Consumed {
		return ErrNotFound
	}

	if !now.Before(challenge.ExpiresAt) {
		return ErrExpired
	}

	if !utils.CheckCode(challenge.CodeHash, code) {
		return ErrMismatch
	}

	res := s.db.Model(&models.OTPChallenge{}).
		Where("id = ? AND consumed = ?", challenge.ID, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": now})
	if res.Error != nil {
		return fmt.Errorf("consume challenge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent verify.
		return ErrNotFound
	}

	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
