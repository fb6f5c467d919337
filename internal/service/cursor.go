package service

import (
	"encoding/base64"
	"fmt"
)

// DefaultPageLimit is the page size used when a list request gives none
const DefaultPageLimit = 50

// MaxPageLimit caps the page size a client may request
const MaxPageLimit = 500

// DecodeCursor decodes a base64-encoded cursor into the server name the next
// page starts after. Returns an empty string for an empty cursor.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to decode cursor: %w", err)
	}
	return string(decoded), nil
}

// EncodeCursor encodes the last server name of a page into an opaque cursor
func EncodeCursor(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}
