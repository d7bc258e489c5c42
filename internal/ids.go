package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// idLength is the number of hex characters kept from the digest. 32 hex
// characters (128 bits) is plenty to avoid collisions across a local index.
const idLength = 32

// NewID derives a stable identifier from semantic key parts. The same parts
// always produce the same id, on any platform, so re-ingesting unchanged raw
// data is idempotent. Callers must substitute a placeholder (empty string is
// fine) for any absent part before calling.
func NewID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])[:idLength]
}

// ConversationIDFor derives a conversation id from the source tag and the
// original session identifier. Nothing else participates, so title, model,
// and timestamp changes never change the id.
func ConversationIDFor(source, sessionID string) string {
	return NewID(source, sessionID)
}

// FileEditIDFor derives a content-stable id for one edit operation.
func FileEditIDFor(messageID string, ordinal int, path string) string {
	return NewID(messageID, "edit", strconv.Itoa(ordinal), path)
}
