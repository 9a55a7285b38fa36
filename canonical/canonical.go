// Package canonical defines the normalized internal representation produced
// by the payload classifier (C3) and consumed by every downstream component.
package canonical

import (
	"time"

	"github.com/google/uuid"
)

// Vendor identifies which device family produced an observation.
type Vendor string

const (
	VendorAVA4 Vendor = "ava4"
	VendorKati Vendor = "kati"
	VendorQube Vendor = "qube"
)

// Kind is the semantic category of a single measurement or event.
type Kind string

const (
	KindBP            Kind = "bp"
	KindGlucose       Kind = "glucose"
	KindSpO2          Kind = "spo2"
	KindTemp          Kind = "temp"
	KindWeight        Kind = "weight"
	KindChol          Kind = "chol"
	KindUA            Kind = "ua"
	KindSalt          Kind = "salt"
	KindSteps         Kind = "steps"
	KindSleep         Kind = "sleep"
	KindLocation      Kind = "location"
	KindDeviceStatus  Kind = "device_status"
	KindFall          Kind = "fall"
	KindSOS           Kind = "sos"
	KindBatchVitals   Kind = "batch_vitals"
)

// subDeviceCapable lists the sub-device kinds that carry a sub_device_mac
// under an AVA4 gateway, per spec.md §3.1's invariant.
var subDeviceCapable = map[Kind]bool{
	KindBP: true, KindGlucose: true, KindSpO2: true, KindTemp: true,
	KindWeight: true, KindChol: true, KindUA: true, KindSalt: true,
}

// RequiresSubDeviceMAC reports whether an AVA4 record of this kind must
// carry a non-empty SubDeviceMAC.
func RequiresSubDeviceMAC(k Kind) bool { return subDeviceCapable[k] }

// Sample is one element of a multi-sample batch payload (Kati AP55, or an
// AVA4 envelope whose device_list carries more than one reading). It
// carries its own effective time and an independently-validated Values map,
// per spec.md §3.1's batch invariant.
type Sample struct {
	EffectiveTime time.Time
	Kind          Kind
	Values        Values
}

// Observation is the canonical internal record produced by the classifier
// (C3) for every accepted MQTT message. Exactly one of (DeviceIMEI,
// GatewayMAC) is populated; SubDeviceMAC is populated for AVA4 records whose
// kind is one in RequiresSubDeviceMAC, and for AVA4 batch_vitals records
// built from a multi-reading envelope.
type Observation struct {
	IngestID      uuid.UUID
	SourceVendor  Vendor
	SourceTopic   string
	DeviceIMEI    string
	GatewayMAC    string
	SubDeviceMAC  string
	SubDeviceKind Kind

	EffectiveTime time.Time
	ReceivedTime  time.Time

	Values Values
	Batch  []Sample

	RawPayload []byte

	// ClockSkewClamped is set when EffectiveTime fell outside the window
	// allowed by spec.md §3.1 and was clamped to ReceivedTime.
	ClockSkewClamped bool
}

// DeviceID returns the vendor-prefixed device identifier used as the FHIR
// performer reference and as the history document's device_id. Worker
// routing uses PartitionKey and dead-letter entries are keyed by IngestID.
func (o *Observation) DeviceID() string {
	id := o.DeviceIMEI
	if id == "" {
		id = o.GatewayMAC
	}
	return string(o.SourceVendor) + "_" + id
}

// PartitionKey returns the stable device key used for consistent-hash
// routing to worker queues (spec.md §5): GatewayMAC if present, else
// DeviceIMEI.
func (o *Observation) PartitionKey() string {
	if o.GatewayMAC != "" {
		return o.GatewayMAC
	}
	return o.DeviceIMEI
}

// ClampEffectiveTime enforces spec.md §3.1's window:
// received-30d <= effective <= received+24h. Out-of-range values are
// clamped to ReceivedTime and ClockSkewClamped is set so the caller can
// emit a PayloadError.ClockSkewWarning without dropping the record.
func (o *Observation) ClampEffectiveTime() {
	lower := o.ReceivedTime.Add(-30 * 24 * time.Hour)
	upper := o.ReceivedTime.Add(24 * time.Hour)
	if o.EffectiveTime.Before(lower) || o.EffectiveTime.After(upper) {
		o.EffectiveTime = o.ReceivedTime
		o.ClockSkewClamped = true
	}
}
