package customers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/kirana/internal/models"
)

// ErrNotFound is returned when no profile exists for an email.
var ErrNotFound = errors.New("profile not found")

// Repository persists shopper profiles and their engagement log.
type Repository struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewRepository constructs a customers Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, nowFunc: time.Now}
}

// Upsert inserts or merges a profile keyed on email as a single conditional
// write. A repeat signup for an existing email increments login_count and
// refreshes last_login_at; full_name and mobile are only overwritten when the
// incoming value is non-empty, so known data never regresses to blank. Two
// concurrent upserts for the same email cannot interleave into a lost update.
func (r *Repository) Upsert(profile models.CustomerProfile) (*models.CustomerProfile, error) {
	now := r.nowFunc()
	if profile.SignupDate.IsZero() {
		profile.SignupDate = now
	}
	profile.LoginCount = 1
	profile.LastLoginAt = &now

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"login_count":    gorm.Expr("customer_profiles.login_count + 1"),
			"last_login_at":  now,
			"full_name":      gorm.Expr("CASE WHEN excluded.full_name <> '' THEN excluded.full_name ELSE customer_profiles.full_name END"),
			"mobile":         gorm.Expr("CASE WHEN excluded.mobile <> '' THEN excluded.mobile ELSE customer_profiles.mobile END"),
			"email_verified": gorm.Expr("customer_profiles.email_verified OR excluded.email_verified"),
			"updated_at":     now,
		}),
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return r.Get(profile.Email)
}

// Get returns the profile for an email.
func (r *Repository) Get(email string) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	if err := r.db.Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

// MarkVerified records a successful email verification.
func (r *Repository) MarkVerified(email string) error {
	return r.db.Model(&models.CustomerProfile{}).
		Where("email = ?", email).
		Update("email_verified", true).Error
}

// TrackLoginActivity appends an engagement log entry. It is best-effort: a
// failure is logged and never propagated to the caller's flow.
func (r *Repository) TrackLoginActivity(email, method string, success bool, failureReason string) {
	entry := models.LoginActivity{
		Email:         email,
		Method:        method,
		Success:       success,
		FailureReason: failureReason,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		log.Printf("[Customers] login activity write failed for %s: %v", email, err)
	}
}
