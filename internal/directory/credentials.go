package directory

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/domain"
)

// HashPassword hashes a plaintext password with the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyCredential reports whether the plaintext password matches the
// record's stored hash.
func VerifyCredential(record *domain.IdentityWithCredential, password string) bool {
	if record == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) == nil
}
