package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	timingGuardOnce sync.Once
	timingGuardHash []byte
)

// HashPassword hashes plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// The comparison is constant time with respect to the password.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCheck spends the same work as a real comparison so that
// unknown accounts cannot be told apart from wrong passwords by latency.
func burnPasswordCheck(password string) {
	timingGuardOnce.Do(func() {
		timingGuardHash, _ = bcrypt.GenerateFromPassword([]byte("meetix-timing-guard"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(timingGuardHash, []byte(password))
}
