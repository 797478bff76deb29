package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// GenerateRandomKey returns length random bytes, URL-safe base64 encoded.
func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// MatchKey compares an offered API key with the configured one in constant time.
func MatchKey(expected, offered string) bool {
	if expected == "" || offered == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(offered)) == 1
}
