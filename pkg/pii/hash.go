// Package pii normalizes and hashes personal identifiers before they are sent
// to an advertising platform.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used to parse phone numbers written without a country code.
const DefaultRegion = "US"

// Hash returns the lowercase hex SHA-256 of the trimmed, lowercased value.
// Empty input hashes to the empty string so callers can omit the field.
func Hash(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone returns the E.164 digits of a phone number without the leading plus.
// Numbers libphonenumber cannot parse are reduced to their digits.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if num, err := libphonenumber.Parse(phone, DefaultRegion); err == nil && libphonenumber.IsValidNumber(num) {
		return strings.TrimPrefix(libphonenumber.Format(num, libphonenumber.E164), "+")
	}
	return digitsOnly(phone)
}

// HashPhone normalizes a phone number and hashes it.
func HashPhone(phone string) string {
	return Hash(NormalizePhone(phone))
}

// MaskEmail keeps the first three characters of the local part for log output.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at < 0 {
		at = len(email)
	}
	keep := 3
	if at < keep {
		keep = at
	}
	return email[:keep] + "***" + email[at:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
