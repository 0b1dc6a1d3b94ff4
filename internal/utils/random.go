package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	numberBytes = "0123456789"
	// no 0/O or 1/I/L
	orderNumberChars = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
)

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

func GenerateOTP(length int) string {
	if length <= 0 {
		length = OTPLength
	}
	return GenerateRandomNumericString(length)
}

// GenerateOrderNumber returns a human friendly order reference such as
// BH-20261018-7KQ2XM.
func GenerateOrderNumber(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = OrderNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), generateRandom(6, orderNumberChars))
}

func GenerateRequestID() string {
	return uuid.NewString()
}

// ObjectKey builds a storage key under dir with a random name and the
// original extension.
func ObjectKey(dir, ext string) string {
	return strings.TrimSuffix(dir, "/") + "/" + uuid.NewString() + strings.ToLower(ext)
}
