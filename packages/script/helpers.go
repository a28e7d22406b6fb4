package script

import (
	"encoding/base64"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomInt returns an integer in [lo, hi]. Bounds are swapped when reversed.
func randomInt(lo, hi int64) int64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + rand.Int63n(hi-lo+1)
}

func randomString(length int) string {
	if length <= 0 {
		length = 10
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b)
}

func newUUID() string {
	return uuid.New().String()
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func unixNow() int64 {
	return time.Now().Unix()
}

func base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func base64Decode(s string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
