// pkg/utils/session.go
package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewSessionID generates a fresh opaque session ID
func NewSessionID() string {
	return uuid.NewString()
}

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// MessageKey derives the stable feedback key for the message at the given
// position in a session. The same session and index always produce the same
// key, so ratings survive re-renders without tracking widget identity.
func MessageKey(sessionID string, index int) string {
	return MD5Hash(fmt.Sprintf("%s:%d", sessionID, index))
}

// ValidateSessionID reports whether a stored session ID is usable.
// IDs are opaque, so only emptiness is rejected.
func ValidateSessionID(sessionID string) bool {
	return strings.TrimSpace(sessionID) != ""
}
