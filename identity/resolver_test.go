package identity_test

import (
	"context"
	"testing"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/codeninja55/vitalgate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Kati_ExactMatch(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedWatch(store.Watch{IMEI: "8612345", PatientID: "patient-1"})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorKati, DeviceIMEI: "8612345",
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceExact, res.Confidence)
	assert.Equal(t, "patient-1", res.PatientID)
	assert.True(t, res.Resolved())
}

func TestResolve_Kati_UnknownIMEI_Unresolved(t *testing.T) {
	mem := store.NewMemStore()
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorKati, DeviceIMEI: "no-such-imei",
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceUnresolved, res.Confidence)
	assert.False(t, res.Resolved())
}

func TestResolve_Qube_ExactMatch(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedHospitalBox(store.HospitalBox{IMEI: "qube-1", HospitalID: "hosp-1"})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorQube, DeviceIMEI: "qube-1",
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceExact, res.Confidence)
	assert.Equal(t, "hosp-1", res.HospitalID)
}

func TestResolve_Qube_UnknownIMEI_Unresolved(t *testing.T) {
	mem := store.NewMemStore()
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorQube, DeviceIMEI: "no-such-box",
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceUnresolved, res.Confidence)
}

func TestResolve_AVA4_SubMAC_ExactMatch(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedRegistry(store.SubDeviceRegistry{
		PatientID: "patient-2",
		MACByKind: map[string]string{string(canonical.KindBP): "sub-mac-1"},
	})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, SubDeviceMAC: "sub-mac-1", SubDeviceKind: canonical.KindBP,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceExact, res.Confidence)
	assert.Equal(t, "patient-2", res.PatientID)
	require.NotNil(t, res.Registry)
	assert.Equal(t, string(canonical.KindBP), res.Registry.DeclaredKind)
}

func TestResolve_AVA4_SubMAC_DeclaredKindMismatch_Conflict(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedRegistry(store.SubDeviceRegistry{
		PatientID: "patient-2",
		MACByKind: map[string]string{string(canonical.KindBP): "sub-mac-1"},
	})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, SubDeviceMAC: "sub-mac-1", SubDeviceKind: canonical.KindSpO2,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceConflict, res.Confidence)
	assert.Equal(t, "patient-2", res.PatientID)
	assert.True(t, res.Resolved())
}

func TestResolve_AVA4_SubMAC_Unknown_Unresolved(t *testing.T) {
	mem := store.NewMemStore()
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, SubDeviceMAC: "no-such-mac", SubDeviceKind: canonical.KindBP,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceUnresolved, res.Confidence)
}

func TestResolve_AVA4_GatewayOnly_ExactMatch(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedGateway(store.GatewayBox{MAC: "gw-mac-1", PatientID: "patient-3"})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, GatewayMAC: "gw-mac-1", SubDeviceKind: canonical.KindDeviceStatus,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceExact, res.Confidence)
	assert.Equal(t, "patient-3", res.PatientID)
}

func TestResolve_AVA4_GatewayOnly_Unknown_Unresolved(t *testing.T) {
	mem := store.NewMemStore()
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, GatewayMAC: "no-such-gateway", SubDeviceKind: canonical.KindDeviceStatus,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceUnresolved, res.Confidence)
}

func TestResolve_AVA4_PrefersSubMACOverGateway(t *testing.T) {
	mem := store.NewMemStore()
	mem.SeedGateway(store.GatewayBox{MAC: "gw-mac-1", PatientID: "gateway-owner"})
	mem.SeedRegistry(store.SubDeviceRegistry{
		PatientID: "sub-device-owner",
		MACByKind: map[string]string{string(canonical.KindBP): "sub-mac-1"},
	})
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{
		SourceVendor: canonical.VendorAVA4, GatewayMAC: "gw-mac-1", SubDeviceMAC: "sub-mac-1", SubDeviceKind: canonical.KindBP,
	})

	require.NoError(t, err)
	assert.Equal(t, "sub-device-owner", res.PatientID)
}

func TestResolve_UnknownVendor_Unresolved(t *testing.T) {
	mem := store.NewMemStore()
	r := identity.New(mem)

	res, err := r.Resolve(context.Background(), &canonical.Observation{SourceVendor: canonical.Vendor("other")})

	require.NoError(t, err)
	assert.Equal(t, identity.ConfidenceUnresolved, res.Confidence)
}
