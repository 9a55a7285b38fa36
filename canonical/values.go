package canonical

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Values is the canonical per-kind measurement map described in spec.md
// §3.3. Keys are canonical (vendor-independent) field names; values are
// numbers (represented precisely via decimal.Decimal to avoid float drift
// on clinical quantities), strings, or nested objects (GPS/WiFi/LBS/sleep
// payloads).
//
// The typed getters below follow the same "decode once, validate at the
// boundary, never re-parse" idiom as dicom.DataSetCollection's indexed
// lookups: callers ask for a field by name and a type and get a precise
// zero-value-free answer or an error naming the field.
type Values map[string]any

// Decimal returns the named field as a decimal.Decimal.
func (v Values) Decimal(key string) (decimal.Decimal, error) {
	raw, ok := v[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("values: missing field %q", key)
	}
	switch n := raw.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("values: field %q is not numeric: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("values: field %q has unsupported type %T", key, raw)
	}
}

// OptionalDecimal is like Decimal but returns (zero, false, nil) when the
// key is absent instead of an error, for the many "?" optional fields in
// spec.md §3.3 (e.g. bp.pulse, spo2.respiration).
func (v Values) OptionalDecimal(key string) (decimal.Decimal, bool, error) {
	if _, ok := v[key]; !ok {
		return decimal.Decimal{}, false, nil
	}
	d, err := v.Decimal(key)
	return d, err == nil, err
}

// String returns the named field as a string.
func (v Values) String(key string) (string, error) {
	raw, ok := v[key]
	if !ok {
		return "", fmt.Errorf("values: missing field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("values: field %q has unsupported type %T", key, raw)
	}
	return s, nil
}

// OptionalString is like String but tolerates absence.
func (v Values) OptionalString(key string) (string, bool) {
	raw, ok := v[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// Object returns the named field as a nested Values map (used for
// location.gps/wifi/lbs and sleep payloads).
func (v Values) Object(key string) (Values, bool) {
	raw, ok := v[key]
	if !ok {
		return nil, false
	}
	switch m := raw.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	default:
		return nil, false
	}
}

// Has reports whether key is present in v.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}
