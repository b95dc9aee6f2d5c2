package chalk

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Short codes are typed by hand off a chalkboard or a TV, so the alphabet
// drops the lookalikes I, O, 0 and 1.
const (
	ShortCodePrefix   = "CHALK-"
	ShortCodeLength   = 4
	shortCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var shortCodeRe = regexp.MustCompile(`^CHALK-[A-HJ-NP-Z2-9]{4}$`)

// HashPIN digests a table PIN to lowercase hex SHA-256. The plaintext is
// never stored or returned.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN checks a candidate PIN against a stored digest in constant time.
func VerifyPIN(pin, pinHash string) bool {
	digest := HashPIN(pin)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(pinHash)) == 1
}

// ValidatePIN enforces the four-character format. Kiosk keypads only emit
// digits, but any four characters hash fine, so length is the whole rule.
func ValidatePIN(pin string) error {
	if utf8.RuneCountInString(pin) != PINLength {
		return ErrInvalidPIN
	}
	return nil
}

// GenerateShortCode returns a fresh CHALK-XXXX code using crypto/rand.
// Uniqueness is the coordinator's job; it retries against the code index on
// collision.
func GenerateShortCode() (string, error) {
	max := big.NewInt(int64(len(shortCodeAlphabet)))
	b := make([]byte, ShortCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shortCodeAlphabet[n.Int64()]
	}
	return ShortCodePrefix + string(b), nil
}

// NormalizeShortCode uppercases and trims user input so "chalk-ab27 "
// matches its stored form.
func NormalizeShortCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateShortCode reports whether a normalized code has the CHALK-XXXX
// shape over the reduced alphabet.
func ValidateShortCode(code string) error {
	if !shortCodeRe.MatchString(code) {
		return ErrInvalidShortCode
	}
	return nil
}
