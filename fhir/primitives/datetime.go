// Package primitives holds the FHIR primitive types whose JSON
// representation needs custom (un)marshalling beyond what a plain Go
// string or number gives us.
package primitives

import (
	"fmt"
	"strings"
	"time"
)

// dateTimeLayouts are the FHIR dateTime precisions, most to least precise,
// per the FHIR spec's "date, dateTime and instant" grammar.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// DateTime wraps time.Time with FHIR's variable-precision dateTime
// encoding, so a partial timestamp round-trips without inventing a
// time-of-day the source data never carried.
type DateTime struct {
	Time      time.Time
	Precision string // the layout it was parsed with; re-used on MarshalJSON
}

// MustDateTime parses s and panics on error. Used in fixed call sites
// (defaults, tests) where the value is a compile-time constant.
func MustDateTime(s string) DateTime {
	dt, err := ParseDateTime(s)
	if err != nil {
		panic(err)
	}
	return dt
}

// ParseDateTime parses s against FHIR's dateTime grammar, trying each
// precision from most to least specific.
func ParseDateTime(s string) (DateTime, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{Time: t, Precision: layout}, nil
		}
	}
	return DateTime{}, fmt.Errorf("primitives: %q is not a valid FHIR dateTime", s)
}

// NewDateTime wraps t at full (RFC3339Nano) precision.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t, Precision: time.RFC3339Nano}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	layout := d.Precision
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return []byte(`"` + d.Time.Format(layout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DateTime) String() string {
	layout := d.Precision
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return d.Time.Format(layout)
}
