// Package coerce is the single boundary where loosely typed client input
// (ids as numbers or strings, several date layouts) becomes canonical values.
package coerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID accepts 12, "12" and " 12 ".
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	v, present, err := parseID(b)
	if err != nil {
		return err
	}
	if present {
		*id = ID(v)
	}
	return nil
}

func (id ID) Int64() int64 {
	return int64(id)
}

// ParseID coerces a path or query value to a canonical id.
func ParseID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return v, nil
}

// OptionalID tracks PATCH semantics: Set means the key was present,
// Valid=false with Set=true means the client cleared the reference.
type OptionalID struct {
	Set   bool
	Valid bool
	Value int64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	v, present, err := parseID(b)
	if err != nil {
		return err
	}
	o.Valid = present
	o.Value = v
	return nil
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns the value as a nullable column value.
func (o OptionalID) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func SetID(v int64) OptionalID {
	return OptionalID{Set: true, Valid: true, Value: v}
}

func ClearedID() OptionalID {
	return OptionalID{Set: true}
}

func parseID(b []byte) (int64, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false, nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return 0, false, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0, false, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid id %s", string(b))
		}
		return id, true, nil
	}

	raw := string(b)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, true, nil
	}
	// number literals like 12.0 or 1e3, only while exactly representable
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloatInt {
		return int64(f), true, nil
	}
	return 0, false, fmt.Errorf("invalid id %s", string(b))
}

const maxExactFloatInt = 1 << 53

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Time accepts RFC3339 and the zone-less layouts an HTML datetime input sends.
// Zone-less values are read as UTC.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// ParseMonth reads YYYY-MM.
func ParseMonth(raw string) (int, time.Month, error) {
	parsed, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM, got %q", raw)
	}
	return parsed.Year(), parsed.Month(), nil
}
