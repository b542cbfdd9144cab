package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

func SHA256sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ETag returns a strong entity tag for a response body.
func ETag(body []byte) string {
	return `"` + SHA256sum(body)[:32] + `"`
}
