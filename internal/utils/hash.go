package utils

import "golang.org/x/crypto/bcrypt"

// HashCode returns a bcrypt hash of a verification code for storage at rest.
func HashCode(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckCode compares a stored code hash with a submitted code.
func CheckCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
