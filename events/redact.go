// Package events implements the event emitter (C7 in spec.md §4.7): it
// posts step markers to the external monitoring sink through a bounded,
// non-blocking queue, and applies a redaction pass before anything
// leaves the process.
package events

import (
	"encoding/json"

	"github.com/tidwall/sjson"

	"github.com/codeninja55/vitalgate/canonical"
)

// Action is the redaction action applied to one payload field, carried
// over from the same K/X/Z/D/C vocabulary a DICOM de-identification
// profile uses for its attributes — here applied to canonical.Values
// keys instead of DICOM tags.
type Action int

const (
	// ActionKeep preserves the field unchanged.
	ActionKeep Action = iota
	// ActionRemove deletes the field entirely.
	ActionRemove
	// ActionEmpty replaces the field with an empty/zero placeholder.
	ActionEmpty
	// ActionDummy replaces the field with a fixed, non-identifying value.
	ActionDummy
	// ActionClean replaces free-text fields with a redacted marker while
	// preserving that the field was present.
	ActionClean
)

// Profile maps a field name to the action applied to it before an event
// payload is emitted to the monitoring sink (spec.md §6.5's `payload`
// field is the raw ingress payload and is the highest-risk surface).
type Profile map[string]Action

// defaultProfile redacts identifiers that are not clinically necessary
// for the monitoring sink to display, while keeping vendor/topic/kind
// context and numeric vitals.
var defaultProfile = Profile{
	"gps":      ActionRemove,
	"wifi":     ActionRemove,
	"lbs":      ActionRemove,
	"raw":      ActionClean,
	"imei":     ActionDummy,
	"mac":      ActionDummy,
	"sub_mac":  ActionDummy,
}

// Redact applies p to v, returning a new Values map; v itself is left
// untouched so the original canonical record still flows to history/FHIR
// unmodified.
func Redact(p Profile, v canonical.Values) canonical.Values {
	if v == nil {
		return nil
	}
	out := make(canonical.Values, len(v))
	for k, val := range v {
		action, ok := p[k]
		if !ok {
			action = ActionKeep
		}
		switch action {
		case ActionRemove:
			continue
		case ActionEmpty:
			out[k] = nil
		case ActionDummy:
			out[k] = "redacted"
		case ActionClean:
			out[k] = "[redacted]"
		default:
			out[k] = val
		}
	}
	return out
}

// DefaultProfile returns the package's standard redaction profile.
func DefaultProfile() Profile { return defaultProfile }

// rawIdentifyingPaths are the gjson/sjson paths across the three vendor
// wire formats that can identify a specific device: IMEIs and MAC
// addresses, at both envelope and nested-data level.
var rawIdentifyingPaths = []string{
	"IMEI",
	"imei",
	"device_id",
	"mac",
	"data.mac",
	"data.IMEI",
}

// RedactRaw applies the default profile's identifier redaction directly
// to a vendor's raw JSON payload, path by path, rather than to an already
// parsed canonical.Values map. This is what ingest.Supervisor attaches to
// an error Event's Payload field: the raw bytes are the highest-risk surface spec.md
// §6.5 describes, so they never leave the process unredacted. Invalid JSON
// is returned unchanged; the caller still wants whatever bytes it can get
// for diagnosis.
func RedactRaw(raw []byte) json.RawMessage {
	out := raw
	for _, path := range rawIdentifyingPaths {
		redacted, err := sjson.SetBytes(out, path, "redacted")
		if err != nil {
			continue
		}
		out = redacted
	}
	return json.RawMessage(out)
}
