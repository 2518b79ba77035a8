package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MarkValue is an optional mark as it arrives on the wire.
//
// HTML forms post numbers as strings, so both 95 and "95" decode to the same
// value. null, "" and a missing key all mean "no mark". Anything else that
// does not parse as a finite number is kept as present-but-not-numeric so
// validation can reject it instead of silently dropping it.
type MarkValue struct {
	Value   float64
	Present bool
	Numeric bool
	raw     string
}

// NewMark returns a present, numeric mark.
func NewMark(v float64) MarkValue {
	return MarkValue{Value: v, Present: true, Numeric: true}
}

// ParseMark interprets a form field. Leading and trailing spaces are ignored.
func ParseMark(s string) MarkValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return MarkValue{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return MarkValue{Present: true, raw: s}
	}
	return MarkValue{Value: f, Present: true, Numeric: true}
}

// Ptr returns the mark as a pointer, nil when absent or not numeric.
func (m MarkValue) Ptr() *float64 {
	if !m.Present || !m.Numeric {
		return nil
	}
	v := m.Value
	return &v
}

// String renders the mark the way a form field would hold it.
func (m MarkValue) String() string {
	switch {
	case !m.Present:
		return ""
	case !m.Numeric:
		return m.raw
	default:
		return strconv.FormatFloat(m.Value, 'f', -1, 64)
	}
}

func (m *MarkValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = MarkValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = ParseMark(s)
		return nil
	}
	*m = ParseMark(string(data))
	return nil
}

func (m MarkValue) MarshalJSON() ([]byte, error) {
	switch {
	case !m.Present:
		return []byte("null"), nil
	case !m.Numeric:
		return json.Marshal(m.raw)
	default:
		return []byte(strconv.FormatFloat(m.Value, 'f', -1, 64)), nil
	}
}
