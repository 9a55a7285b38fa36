// Package classify implements the per-vendor payload classifier and
// validator (C3 in spec.md §4.3): JSON-parse, classify by topic/discriminator,
// extract canonical values, validate shape and numeric ranges, and return a
// canonical.Observation or a typed canonical.PayloadError.
package classify

import (
	"fmt"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/shopspring/decimal"
)

// Range describes an inclusive numeric bound for a canonical value field,
// per the range table in spec.md §3.3. This mirrors dicom/vr's
// table-of-type-properties idiom, adapted from byte-encoding rules to
// clinical range rules.
type Range struct {
	Min, Max decimal.Decimal
}

func r(min, max float64) Range {
	return Range{Min: decimal.NewFromFloat(min), Max: decimal.NewFromFloat(max)}
}

// InRange reports whether d falls within [r.Min, r.Max] inclusive.
func (rg Range) InRange(d decimal.Decimal) bool {
	return !d.LessThan(rg.Min) && !d.GreaterThan(rg.Max)
}

// ranges is the field -> Range table from spec.md §3.3's boundary list.
var ranges = map[string]Range{
	"systolic":  r(40, 260),
	"diastolic": r(20, 200),
	"pulse":     r(20, 250),
	"spo2":      r(50, 100),
	"value_temp": r(20, 45), // alias used only for temp.value, see checkRanges
	"weight":    r(0.5, 500),
	"value_glucose": r(10, 800), // alias used only for glucose.value
}

// schema lists the required and optional canonical keys per sub-device
// kind, per the table in spec.md §3.3.
type schema struct {
	required []string
	optional []string
}

var schemas = map[canonical.Kind]schema{
	canonical.KindBP:           {required: []string{"systolic", "diastolic"}, optional: []string{"pulse"}},
	canonical.KindGlucose:      {required: []string{"value", "marker"}},
	canonical.KindSpO2:         {required: []string{"spo2"}, optional: []string{"pulse", "respiration"}},
	canonical.KindTemp:         {required: []string{"value"}},
	canonical.KindWeight:       {required: []string{"weight"}, optional: []string{"bmi"}},
	canonical.KindChol:         {required: []string{"value"}},
	canonical.KindUA:           {required: []string{"value"}},
	canonical.KindSalt:         {required: []string{"value"}},
	canonical.KindSteps:        {required: []string{"steps"}},
	canonical.KindSleep:        {required: []string{"period", "slots", "raw"}},
	canonical.KindLocation:     {optional: []string{"gps", "wifi", "lbs"}},
	canonical.KindDeviceStatus: {required: []string{"status"}, optional: []string{"battery", "signal"}},
	canonical.KindFall:         {optional: []string{"location"}},
	canonical.KindSOS:          {optional: []string{"location"}},
}

// glucoseMarkers is the enum allowed for glucose.marker.
var glucoseMarkers = map[string]bool{"fasting": true, "post_meal": true, "none": true}

// deviceStatuses is the enum allowed for device_status.status.
var deviceStatuses = map[string]bool{"online": true, "offline": true}

// checkSchema validates required-key presence for kind against v, returning
// a canonical.PayloadError.SchemaViolation for the first missing field.
func checkSchema(kind canonical.Kind, v canonical.Values) error {
	s, ok := schemas[kind]
	if !ok {
		return nil
	}
	for _, field := range s.required {
		if !v.Has(field) {
			return canonical.NewSchemaViolation(field, fmt.Errorf("required for kind %q", kind))
		}
	}
	switch kind {
	case canonical.KindGlucose:
		marker, _ := v.String("marker")
		if !glucoseMarkers[marker] {
			return canonical.NewSchemaViolation("marker", fmt.Errorf("must be one of fasting|post_meal|none, got %q", marker))
		}
	case canonical.KindDeviceStatus:
		status, _ := v.String("status")
		if !deviceStatuses[status] {
			return canonical.NewSchemaViolation("status", fmt.Errorf("must be one of online|offline, got %q", status))
		}
	}
	return nil
}

// checkRanges validates numeric fields against the range table in spec.md
// §3.3, returning canonical.PayloadError.OutOfRange for the first
// violation. Range violations are always rejected (never clamped — see
// spec.md S5); only clock skew is clamped.
func checkRanges(kind canonical.Kind, v canonical.Values) error {
	checkField := func(field string, rg Range) error {
		d, present, err := v.OptionalDecimal(field)
		if !present {
			return nil
		}
		if err != nil {
			return canonical.NewSchemaViolation(field, err)
		}
		if !rg.InRange(d) {
			return canonical.NewOutOfRange(field, d.String())
		}
		return nil
	}

	switch kind {
	case canonical.KindBP:
		if err := checkField("systolic", ranges["systolic"]); err != nil {
			return err
		}
		if err := checkField("diastolic", ranges["diastolic"]); err != nil {
			return err
		}
		return checkField("pulse", ranges["pulse"])
	case canonical.KindSpO2:
		if err := checkField("spo2", ranges["spo2"]); err != nil {
			return err
		}
		return checkField("pulse", ranges["pulse"])
	case canonical.KindTemp:
		return checkField("value", ranges["value_temp"])
	case canonical.KindWeight:
		return checkField("weight", ranges["weight"])
	case canonical.KindGlucose:
		return checkField("value", ranges["value_glucose"])
	}
	return nil
}

// Validate runs schema then range checks for a single sample's Values
// against its declared Kind. Both classify.go (single-sample records) and
// the batch_vitals path call this once per element.
func Validate(kind canonical.Kind, v canonical.Values) error {
	if err := checkSchema(kind, v); err != nil {
		return err
	}
	return checkRanges(kind, v)
}
