package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the persisted position of a mirror stream.
// Value is the JSON encoding of the last cursor column value written, kept
// verbatim so timestamps and bigints round-trip without reinterpretation.
type Cursor struct {
	Stream string
	Column string
	Value  json.RawMessage
	// Ties counts rows already written whose cursor equals Value.
	Ties      int
	UpdatedAt time.Time
}

// Validate checks the cursor can be stored.
func (c *Cursor) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil cursor", ErrInvalidInput)
	}
	if c.Stream == "" || c.Column == "" {
		return fmt.Errorf("%w: cursor needs stream and column", ErrInvalidInput)
	}
	if len(c.Value) == 0 || !json.Valid(c.Value) {
		return fmt.Errorf("%w: cursor %s has invalid value %q", ErrInvalidInput, c.Stream, c.Value)
	}
	if c.Ties < 0 {
		return fmt.Errorf("%w: cursor %s has negative ties", ErrInvalidInput, c.Stream)
	}
	return nil
}

// Time decodes Value as a timestamp. ok is false for non-time cursors.
func (c *Cursor) Time() (t time.Time, ok bool) {
	var s string
	if err := json.Unmarshal(c.Value, &s); err != nil {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
