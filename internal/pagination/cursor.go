// Package pagination implements opaque keyset cursors over (created_at, id).
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor marks a position in a feed ordered by (created_at, id) descending.
// The wire form is base64url-encoded JSON of a two-element array: the RFC 3339
// timestamp and the row ID as a string.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode serializes the cursor into its opaque wire form.
func Encode(c Cursor) string {
	payload, _ := json.Marshal([2]string{
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.ID,
	})
	return base64.URLEncoding.EncodeToString(payload)
}

// Decode parses an opaque cursor. Any structural problem is an error; callers
// decide whether to reject the request or fall back to the first page.
func Decode(raw string) (Cursor, error) {
	payload, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		// Tolerate unpadded input from clients that strip '='.
		payload, err = base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return Cursor{}, fmt.Errorf("cursor is not valid base64: %w", err)
		}
	}

	var parts [2]string
	if err := json.Unmarshal(payload, &parts); err != nil {
		return Cursor{}, fmt.Errorf("cursor payload is not a two-element array: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("cursor timestamp is invalid: %w", err)
	}
	if parts[1] == "" {
		return Cursor{}, fmt.Errorf("cursor id is empty")
	}

	return Cursor{CreatedAt: ts, ID: parts[1]}, nil
}
