// Package cursor defines the resumable checkpoint persisted between sensor ticks.
package cursor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Cursor records the polling window and the offset of the next run to process.
// Nil fields are resolved at evaluation time: a nil start means "now minus the
// lookback", a nil end means "now", and a nil offset means 0.
type Cursor struct {
	WindowStart *float64 `json:"window_start"`
	WindowEnd   *float64 `json:"window_end"`
	Offset      *int     `json:"page_offset"`
}

var errInvalid = errors.New("invalid cursor")

// Default returns a fresh cursor covering [now-lookback, now] at offset 0.
func Default(now time.Time, lookback time.Duration) Cursor {
	return Cursor{
		WindowStart: Timestamp(now.Add(-lookback)),
		WindowEnd:   Timestamp(now),
		Offset:      intPtr(0),
	}
}

// Resume keeps the window and continues from offset next.
func Resume(start, end float64, next int) Cursor {
	return Cursor{WindowStart: &start, WindowEnd: &end, Offset: intPtr(next)}
}

// Advance slides the window forward once [.., end] has been fully processed.
// The new end stays nil so the next tick resolves it to its own "now".
func Advance(end float64) Cursor {
	return Cursor{WindowStart: &end, WindowEnd: nil, Offset: intPtr(0)}
}

// Encode serializes c. Every field, including nils, round-trips through Decode.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return string(data), nil
}

// Decode parses a serialized cursor, rejecting malformed input.
func Decode(raw string) (Cursor, error) {
	var c Cursor
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", errInvalid, err)
	}
	if dec.More() {
		return Cursor{}, fmt.Errorf("%w: trailing data", errInvalid)
	}
	if err := c.validate(); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

// DecodeOrDefault never fails: absent or malformed input yields Default.
// The returned error reports why the default was used and is nil when raw
// decoded cleanly or was empty.
func DecodeOrDefault(raw string, now time.Time, lookback time.Duration) (Cursor, error) {
	if strings.TrimSpace(raw) == "" {
		return Default(now, lookback), nil
	}
	c, err := Decode(raw)
	if err != nil {
		return Default(now, lookback), err
	}
	return c, nil
}

// IsInvalid reports whether err came from rejecting malformed cursor input.
func IsInvalid(err error) bool {
	return errors.Is(err, errInvalid)
}

// Bounds resolves the effective window and offset for a tick starting at now.
func (c Cursor) Bounds(now time.Time, lookback time.Duration) (start, end float64, offset int) {
	if c.WindowStart != nil {
		start = *c.WindowStart
	} else {
		start = *Timestamp(now.Add(-lookback))
	}
	if c.WindowEnd != nil {
		end = *c.WindowEnd
	} else {
		end = *Timestamp(now)
	}
	if c.Offset != nil {
		offset = *c.Offset
	}
	// A wall clock that stepped back must not pull the window behind its start.
	if end < start {
		end = start
	}
	return start, end, offset
}

// Equal compares two cursors field by field, treating nil and non-nil as distinct.
func (c Cursor) Equal(o Cursor) bool {
	return floatPtrEqual(c.WindowStart, o.WindowStart) &&
		floatPtrEqual(c.WindowEnd, o.WindowEnd) &&
		intPtrEqual(c.Offset, o.Offset)
}

func (c Cursor) String() string {
	return fmt.Sprintf("cursor(start=%s end=%s offset=%s)",
		formatFloat(c.WindowStart), formatFloat(c.WindowEnd), formatInt(c.Offset))
}

func (c Cursor) validate() error {
	for _, v := range []*float64{c.WindowStart, c.WindowEnd} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0) {
			return fmt.Errorf("%w: bad timestamp %v", errInvalid, *v)
		}
	}
	if c.Offset != nil && *c.Offset < 0 {
		return fmt.Errorf("%w: negative offset %d", errInvalid, *c.Offset)
	}
	if c.WindowStart != nil && c.WindowEnd != nil && *c.WindowStart > *c.WindowEnd {
		return fmt.Errorf("%w: window start after end", errInvalid)
	}
	return nil
}

// Timestamp converts t to float seconds since the epoch at microsecond precision.
func Timestamp(t time.Time) *float64 {
	v := float64(t.UnixMicro()) / 1e6
	return &v
}

// Time converts float seconds since the epoch back to a UTC time.
func Time(ts float64) time.Time {
	return time.UnixMicro(int64(math.Round(ts * 1e6))).UTC()
}

func intPtr(v int) *int {
	return &v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatFloat(v *float64) string {
	if v == nil {
		return "nil"
	}
	return Time(*v).Format(time.RFC3339Nano)
}

func formatInt(v *int) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *v)
}
