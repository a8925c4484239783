package memory

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Value is a fact's stored payload: a single serialized JSON document.
// The serialization state is explicit in the constructor — RawValue for
// content that is already JSON, TypedValue for Go values marshalled once
// here — so a value can never be double-serialized or re-wrapped.
type Value struct {
	raw string
}

// RawValue wraps an already-serialized JSON document. The document is
// preserved byte-for-byte; it is only checked for well-formedness.
func RawValue(doc string) (Value, error) {
	if !json.Valid([]byte(doc)) {
		return Value{}, &ValidationError{Field: "value", Reason: "raw value is not valid JSON"}
	}
	return Value{raw: doc}, nil
}

// TypedValue serializes a Go value into a stored document.
func TypedValue(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, &ValidationError{Field: "value", Reason: "not serializable: " + err.Error()}
	}
	return Value{raw: string(b)}, nil
}

// StringValue is shorthand for TypedValue over a plain string.
func StringValue(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: string(b)}
}

// JSON returns the stored document exactly as persisted.
func (v Value) JSON() string { return v.raw }

// IsZero reports whether the value carries no document at all.
func (v Value) IsZero() bool { return v.raw == "" }

// Decode unmarshals the stored document into dst.
func (v Value) Decode(dst any) error {
	return json.Unmarshal([]byte(v.raw), dst)
}

// MarshalJSON emits the stored document unchanged, so a Value embedded in
// a larger response is never wrapped in a second string layer.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == "" {
		return []byte("null"), nil
	}
	return []byte(v.raw), nil
}

// UnmarshalJSON adopts the incoming document as the stored form.
func (v *Value) UnmarshalJSON(b []byte) error {
	v.raw = string(bytes.TrimSpace(b))
	return nil
}

// Normalized returns the canonical comparison form used by conflict
// detection: strings are lower-cased, objects re-serialized with sorted
// keys, and everything else rendered as canonical JSON.
func (v Value) Normalized() string {
	var decoded any
	if err := json.Unmarshal([]byte(v.raw), &decoded); err != nil {
		return strings.ToLower(strings.TrimSpace(v.raw))
	}
	return normalizeDecoded(decoded)
}

func normalizeDecoded(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			b.WriteString(normalizeDecoded(t[k]))
		}
		b.WriteByte('}')
		return b.String()
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(normalizeDecoded(e))
		}
		b.WriteByte(']')
		return b.String()
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
