package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Timestamp is a point in time that also accepts bare calendar dates on the wire.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Now returns the current time truncated to milliseconds, the wire precision.
func Now() Timestamp {
	return NewTimestamp(time.Now().Truncate(time.Millisecond))
}

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) or YYYY-MM-DD.
func ParseTimestamp(value string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return NewTimestamp(t), nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return NewTimestamp(t), nil
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
