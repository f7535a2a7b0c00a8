package login

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashPassword возвращает дайджест общего пароля в старом формате: 0x + hex(blake2b-256).
func HashPassword(password string) string {
	sum := blake2b.Sum256([]byte(password))
	return "0x" + hex.EncodeToString(sum[:])
}

// MatchesLegacy сравнивает пароль с сохранённым дайджестом за постоянное время.
func (i Info) MatchesLegacy(password string) bool {
	if !i.HasLegacyPassword() {
		return false
	}
	got := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(i.HashedPassword)) == 1
}
