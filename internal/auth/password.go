package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword сравнивает пароль с сохранённым хешем.
//
// Кроме bcrypt принимаются старые хеши: SHA-256 в hex без соли.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	if IsLegacyHash(hash) {
		sum := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(hash))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsLegacyHash возвращает true для хешей, созданных до перехода на bcrypt.
func IsLegacyHash(hash string) bool {
	return !strings.HasPrefix(hash, "$2") && len(hash) == sha256.Size*2
}
