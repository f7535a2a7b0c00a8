package keystore

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Константы для PBKDF2
	pbkdf2Iterations = 100000
	pbkdf2KeyLength  = 32
	pbkdf2SaltLength = 16
)

func generateSalt() ([]byte, error) {
	salt := make([]byte, pbkdf2SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("ошибка генерации соли: %w", err)
	}
	return salt, nil
}

// deriveVerifier хранит не сам ключ, а его хэш: по верификатору ключ не восстановить.
func deriveVerifier(password string, salt []byte, iterations int) []byte {
	key := pbkdf2.Key([]byte(password), salt, iterations, pbkdf2KeyLength, sha256.New)
	sum := sha256.Sum256(key)
	clearMemory(key)
	return sum[:]
}

func verify(password string, salt, verifier []byte, iterations int) bool {
	got := deriveVerifier(password, salt, iterations)
	return subtle.ConstantTimeCompare(got, verifier) == 1
}

// clearMemory затирает чувствительные данные из памяти
func clearMemory(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
