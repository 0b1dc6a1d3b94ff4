package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone strips punctuation and returns the number in E.164 form.
// Numbers without a leading + get defaultCountryCode prepended.
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	cleaned := nonPhoneChars.ReplaceAllString(strings.TrimSpace(phone), "")
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = strings.TrimPrefix(cleaned, "0")
		cleaned = "+" + strings.TrimPrefix(defaultCountryCode, "+") + cleaned
	}

	if !phoneRegex.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
