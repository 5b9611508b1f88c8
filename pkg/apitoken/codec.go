package apitoken

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PlaintextLength is the length of generated token plaintexts.
const PlaintextLength = 64

const plaintextAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// compositeSeparator joins the record id and the plaintext in the external
// token form "{id}|{plaintext}".
const compositeSeparator = "|"

// GeneratePlaintext returns a new random token plaintext drawn from an
// alphanumeric alphabet using crypto/rand.
func GeneratePlaintext() (string, error) {
	buf := make([]byte, PlaintextLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token plaintext: %w", err)
	}
	for i, b := range buf {
		buf[i] = plaintextAlphabet[int(b)%len(plaintextAlphabet)]
	}
	return string(buf), nil
}

// HashPlaintext returns the hex-encoded SHA-256 digest of plaintext. Only
// the digest is ever persisted.
func HashPlaintext(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VerifyPlaintext reports whether plaintext hashes to storedHash using a
// constant-time comparison.
func VerifyPlaintext(plaintext, storedHash string) bool {
	computed := HashPlaintext(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// FormatComposite renders the external token form "{id}|{plaintext}".
func FormatComposite(id uuid.UUID, plaintext string) string {
	return id.String() + compositeSeparator + plaintext
}

// SplitComposite splits an external token string into its record id and
// plaintext parts. ok is false when the string carries no separator or the
// id part is not a UUID; such strings are treated as plain tokens and
// looked up by digest instead.
func SplitComposite(token string) (id uuid.UUID, plaintext string, ok bool) {
	idPart, rest, found := strings.Cut(token, compositeSeparator)
	if !found {
		return uuid.Nil, "", false
	}
	parsed, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return parsed, rest, true
}
