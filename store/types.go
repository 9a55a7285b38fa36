// Package store abstracts document-store access for patients, device
// registries, history collections, and is C1 in spec.md §4.1.
package store

import "time"

// Patient is the identity entity from spec.md §3.2. The core only needs the
// stable id; demographics and back-pointers are out of scope (owned by the
// external admin surface).
type Patient struct {
	ID string
}

// GatewayBox is an AVA4 gateway, keyed by its MAC (spec.md §3.2).
type GatewayBox struct {
	MAC       string
	PatientID string // empty if unowned
}

// SubDeviceRegistry maps a patient's BLE sub-devices to their kind, sparse
// per spec.md §3.2.
type SubDeviceRegistry struct {
	PatientID string
	// MACByKind maps sub_device_kind -> sub_device_mac.
	MACByKind map[string]string
}

// RegistryEntry is the reverse-index lookup result for a sub-device MAC
// (spec.md §4.1's find_registry_by_sub_mac).
type RegistryEntry struct {
	PatientID     string
	DeclaredKind  string
}

// Watch is a Kati wrist monitor, keyed by IMEI (spec.md §3.2).
type Watch struct {
	IMEI      string
	PatientID string
}

// HospitalBox is a Qube-Vital unit, keyed by IMEI (spec.md §3.2).
type HospitalBox struct {
	IMEI       string
	HospitalID string
}

// HistoryDocument is one append-only row in a per-kind history series, per
// spec.md §4.6's append format.
type HistoryDocument struct {
	PatientID     string         `bson:"patient_id"`   // empty for unmapped devices
	DisplayName   string         `bson:"display_name"` // "Unmapped Device (...)" when PatientID is empty
	IngestID      string         `bson:"ingest_id"`
	EffectiveTime time.Time      `bson:"effective_time"`
	ReceivedTime  time.Time      `bson:"received_time"`
	SubDeviceKind string         `bson:"sub_device_kind"`
	SourceVendor  string         `bson:"source_vendor"`
	DeviceID      string         `bson:"device_id"`
	Values        map[string]any `bson:"values"`
}
