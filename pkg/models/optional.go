package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Placeholder is rendered wherever a value is unknown.
const Placeholder = "—"

// OptFloat is a float64 tagged as present or absent.
// The zero value is Unknown.
type OptFloat struct {
	Value float64
	Valid bool
}

// Unknown is the absent OptFloat.
var Unknown = OptFloat{}

// Known returns a present OptFloat holding v.
func Known(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// FromPtr converts a provider pointer (nil = absent) into an OptFloat.
func FromPtr(p *float64) OptFloat {
	if p == nil {
		return Unknown
	}
	return Known(*p)
}

// Or returns the value when known, otherwise def.
func (o OptFloat) Or(def float64) float64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// Ptr returns a pointer to a copy of the value, or nil when unknown.
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// String formats the value with two decimals, or the placeholder.
func (o OptFloat) String() string {
	if !o.Valid {
		return Placeholder
	}
	return strconv.FormatFloat(o.Value, 'f', 2, 64)
}

// MarshalJSON encodes unknown values as null.
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null as Unknown.
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Known(v)
	return nil
}
