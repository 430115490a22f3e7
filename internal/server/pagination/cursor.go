// Package pagination implements the opaque keyset cursor used by the news
// listing endpoint. The cursor encodes the (published_at, id) pair of the
// last row served, which together form a total order over the table.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const separator = "|"

// Cursor is the decoded position of the last row already served.
type Cursor struct {
	Timestamp time.Time
	ID        int64
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := c.Timestamp.UTC().Format(time.RFC3339Nano) + separator + strconv.FormatInt(c.ID, 10)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. Any malformed token is rejected
// rather than treated as a zero position.
func Decode(token string) (Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("cursor is not valid base64: %w", err)
	}

	ts, idPart, found := strings.Cut(string(raw), separator)
	if !found {
		return Cursor{}, fmt.Errorf("cursor is missing its id part")
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("cursor timestamp is malformed: %w", err)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("cursor id is malformed: %w", err)
	}

	return Cursor{Timestamp: timestamp.UTC(), ID: id}, nil
}
