// Package identity implements the device-identity resolver (C2 in
// spec.md §4.2): turns a canonical.Observation's carried identifiers into
// a resolution against the patient/hospital/registry stores.
package identity

import (
	"context"
	"fmt"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/store"
)

// Confidence is the resolver's outcome classification, per spec.md §4.2.
type Confidence string

const (
	ConfidenceExact      Confidence = "exact"
	ConfidenceConflict   Confidence = "conflict"
	ConfidenceUnresolved Confidence = "unresolved"
)

// Resolution is the result record described in spec.md §4.2.
type Resolution struct {
	PatientID    string
	HospitalID   string
	Registry     *store.RegistryEntry
	Confidence   Confidence
}

// Resolved reports whether this resolution carries a usable patient or
// hospital id (i.e. is FHIR-eligible per spec.md §3.4).
func (r Resolution) Resolved() bool {
	return r.Confidence != ConfidenceUnresolved
}

// Resolver implements C2's algorithm against a store.Store.
type Resolver struct {
	Store store.Store
}

// New builds a Resolver over s.
func New(s store.Store) *Resolver {
	return &Resolver{Store: s}
}

// Resolve runs the four-branch algorithm from spec.md §4.2. A miss at any
// step yields Confidence: unresolved, never an error — unresolved is a
// normal, expected outcome (spec.md §7 "Resolution" row: keep in history
// with patient_id=null, skip FHIR).
func (r *Resolver) Resolve(ctx context.Context, obs *canonical.Observation) (Resolution, error) {
	switch obs.SourceVendor {
	case canonical.VendorKati:
		w, err := r.Store.FindWatchByIMEI(ctx, obs.DeviceIMEI)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: resolve kati watch: %w", err)
		}
		if w == nil || w.PatientID == "" {
			return Resolution{Confidence: ConfidenceUnresolved}, nil
		}
		return Resolution{PatientID: w.PatientID, Confidence: ConfidenceExact}, nil

	case canonical.VendorQube:
		box, err := r.Store.FindHospitalBoxByIMEI(ctx, obs.DeviceIMEI)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: resolve qube box: %w", err)
		}
		if box == nil || box.HospitalID == "" {
			return Resolution{Confidence: ConfidenceUnresolved}, nil
		}
		return Resolution{HospitalID: box.HospitalID, Confidence: ConfidenceExact}, nil

	case canonical.VendorAVA4:
		if obs.SubDeviceMAC != "" {
			entry, err := r.Store.FindRegistryBySubMAC(ctx, obs.SubDeviceMAC)
			if err != nil {
				return Resolution{}, fmt.Errorf("identity: resolve ava4 sub-device: %w", err)
			}
			if entry == nil || entry.PatientID == "" {
				return Resolution{Confidence: ConfidenceUnresolved}, nil
			}
			conf := ConfidenceExact
			if entry.DeclaredKind != string(obs.SubDeviceKind) {
				conf = ConfidenceConflict
			}
			return Resolution{PatientID: entry.PatientID, Registry: entry, Confidence: conf}, nil
		}
		box, err := r.Store.FindGatewayByMAC(ctx, obs.GatewayMAC)
		if err != nil {
			return Resolution{}, fmt.Errorf("identity: resolve ava4 gateway: %w", err)
		}
		if box == nil || box.PatientID == "" {
			return Resolution{Confidence: ConfidenceUnresolved}, nil
		}
		return Resolution{PatientID: box.PatientID, Confidence: ConfidenceExact}, nil

	default:
		return Resolution{Confidence: ConfidenceUnresolved}, nil
	}
}
