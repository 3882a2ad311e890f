package posts

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxCursorSize = 512

// Cursor is a keyset position: the last post of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EncodeCursor builds an opaque cursor from the last post on a page.
// Format: base64url(created_at|id).
func EncodeCursor(p *Post) string {
	raw := p.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + p.ID.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor. A nil or empty cursor means the first page
// and returns nil.
func DecodeCursor(cursor *string) (*Cursor, error) {
	if cursor == nil || *cursor == "" {
		return nil, nil
	}
	if len(*cursor) > maxCursorSize {
		return nil, fmt.Errorf("%w: cursor exceeds maximum length", ErrInvalidCursor)
	}

	decoded, err := base64.URLEncoding.DecodeString(*cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding", ErrInvalidCursor)
	}

	createdAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("%w: malformed cursor format", ErrInvalidCursor)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp in cursor", ErrInvalidCursor)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id in cursor", ErrInvalidCursor)
	}

	return &Cursor{CreatedAt: ts, ID: parsedID}, nil
}
