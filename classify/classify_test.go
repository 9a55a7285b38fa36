package classify_test

import (
	"strings"
	"testing"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_AVA4_SingleSampleBP(t *testing.T) {
	payload := `{
		"mac": "AA:BB:CC:DD:EE:FF",
		"deviceCode": "BP_BIOLIGTH",
		"data": {
			"mac": "11:22:33:44:55:66",
			"value": {
				"device_list": [
					{"bp_high": 120, "bp_low": 80, "PR": 72}
				]
			}
		}
	}`
	c := classify.New(true)
	result, err := c.Classify("dusun_sub", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.VendorAVA4, obs.SourceVendor)
	assert.Equal(t, canonical.KindBP, obs.SubDeviceKind)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", obs.GatewayMAC)
	assert.Equal(t, "11:22:33:44:55:66", obs.SubDeviceMAC)
	assert.EqualValues(t, 120, obs.Values["systolic"])
	assert.EqualValues(t, 80, obs.Values["diastolic"])
	assert.EqualValues(t, 72, obs.Values["pulse"])
}

func TestClassify_AVA4_MultiSampleBatch(t *testing.T) {
	payload := `{
		"mac": "AA:BB:CC:DD:EE:FF",
		"deviceCode": "SpO2",
		"data": {
			"mac": "11:22:33:44:55:66",
			"value": {
				"device_list": [
					{"spo2": 97, "pulse": 70},
					{"spo2": 96, "pulse": 71}
				]
			}
		}
	}`
	c := classify.New(true)
	result, err := c.Classify("dusun_sub", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.KindBatchVitals, obs.SubDeviceKind)
	require.Len(t, obs.Batch, 2)
	assert.Equal(t, canonical.KindSpO2, obs.Batch[0].Kind)
	assert.EqualValues(t, 97, obs.Batch[0].Values["spo2"])
	assert.EqualValues(t, 96, obs.Batch[1].Values["spo2"])
}

func TestClassify_AVA4_DeviceStatus(t *testing.T) {
	payload := `{
		"mac": "AA:BB:CC:DD:EE:FF",
		"data": {"value": {"status": "online", "battery": 88, "signal": 20}}
	}`
	c := classify.New(true)
	result, err := c.Classify("dusun_status", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.KindDeviceStatus, obs.SubDeviceKind)
	assert.Equal(t, "online", obs.Values["status"])
	assert.EqualValues(t, 88, obs.Values["battery"])
}

func TestClassify_AVA4_UnknownDeviceCode(t *testing.T) {
	payload := `{"mac": "AA:BB", "deviceCode": "SOMETHING_WEIRD",
		"data": {"value": {"device_list": [{"value": 1}]}}}`
	c := classify.New(true)
	_, err := c.Classify("dusun_sub", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrUnknownDiscriminator, err.Kind)
}

func TestClassify_AVA4_MissingDeviceCode(t *testing.T) {
	payload := `{"mac": "AA:BB", "data": {"value": {"device_list": [{"value": 1}]}}}`
	c := classify.New(true)
	_, err := c.Classify("dusun_sub", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrMissingDiscriminator, err.Kind)
}

func TestClassify_Kati_VitalSign_BPTakesPriorityOverSpO2(t *testing.T) {
	payload := `{
		"IMEI": "8612345",
		"heartRate": 72,
		"spO2": 97,
		"bloodPressure": {"bp_sys": 120, "bp_dia": 78}
	}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.VendorKati, obs.SourceVendor)
	assert.Equal(t, "8612345", obs.DeviceIMEI)
	assert.Equal(t, canonical.KindBP, obs.SubDeviceKind)
	assert.EqualValues(t, 120, obs.Values["systolic"])
	assert.EqualValues(t, 78, obs.Values["diastolic"])
	assert.EqualValues(t, 72, obs.Values["pulse"])
}

func TestClassify_Kati_VitalSign_SpO2WhenNoBP(t *testing.T) {
	payload := `{"IMEI": "8612345", "heartRate": 70, "spO2": 96}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)
	assert.Equal(t, canonical.KindSpO2, result.Observation.SubDeviceKind)
	assert.EqualValues(t, 96, result.Observation.Values["spo2"])
}

func TestClassify_Kati_VitalSign_TempWhenOnlyTempPresent(t *testing.T) {
	payload := `{"IMEI": "8612345", "bodyTemperature": 36.8}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)
	assert.Equal(t, canonical.KindTemp, result.Observation.SubDeviceKind)
}

func TestClassify_Kati_VitalSign_NoRecognizedField(t *testing.T) {
	payload := `{"IMEI": "8612345"}`
	c := classify.New(true)
	_, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrSchemaViolation, err.Kind)
}

func TestClassify_Kati_AP55_Batch(t *testing.T) {
	payload := `{
		"IMEI": "8612345",
		"data": [
			{"bloodPressure": {"bp_sys": 118, "bp_dia": 76}, "heartRate": 68},
			{"spO2": 98, "heartRate": 69},
			{"bodyTemperature": 36.5}
		]
	}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/AP55", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.KindBatchVitals, obs.SubDeviceKind)
	require.Len(t, obs.Batch, 3)
	assert.Equal(t, canonical.KindBP, obs.Batch[0].Kind)
	assert.Equal(t, canonical.KindSpO2, obs.Batch[1].Kind)
	assert.Equal(t, canonical.KindTemp, obs.Batch[2].Kind)
}

func TestClassify_Kati_Hb_MapsToDeviceStatus(t *testing.T) {
	payload := `{"IMEI": "8612345", "battery": 90, "signalGSM": 25, "steps": 500}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/hb", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)
	assert.Equal(t, canonical.KindDeviceStatus, result.Observation.SubDeviceKind)
	assert.Equal(t, "online", result.Observation.Values["status"])
}

func TestClassify_Kati_UnrecognizedSubTopic(t *testing.T) {
	payload := `{"IMEI": "8612345"}`
	c := classify.New(true)
	_, err := c.Classify("iMEDE_watch/somethingElse", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrUnknownTopic, err.Kind)
}

func TestClassify_Qube_BloodPressure(t *testing.T) {
	payload := `{
		"device_id": "qube-1",
		"type": "BLOOD_PRESSURE",
		"data": {"value": {"systolic": 130, "diastolic": 85, "pulse": 75}}
	}`
	c := classify.New(true)
	result, err := c.Classify("CM4_BLE_GW_TX", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)

	obs := result.Observation
	assert.Equal(t, canonical.VendorQube, obs.SourceVendor)
	assert.Equal(t, "qube-1", obs.DeviceIMEI)
	assert.Equal(t, canonical.KindBP, obs.SubDeviceKind)
	assert.EqualValues(t, 130, obs.Values["systolic"])
}

func TestClassify_Qube_MissingDeviceID(t *testing.T) {
	payload := `{"type": "BLOOD_PRESSURE", "data": {"value": {"systolic": 120, "diastolic": 80}}}`
	c := classify.New(true)
	_, err := c.Classify("CM4_BLE_GW_TX", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrSchemaViolation, err.Kind)
	assert.Equal(t, "device_id", err.Field)
}

func TestClassify_Qube_UnknownType(t *testing.T) {
	payload := `{"device_id": "qube-1", "type": "HEART_RATE", "data": {"value": {"value": 80}}}`
	c := classify.New(true)
	_, err := c.Classify("CM4_BLE_GW_TX", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrUnknownDiscriminator, err.Kind)
}

func TestClassify_UnknownTopic(t *testing.T) {
	c := classify.New(true)
	_, err := c.Classify("some/random/topic", []byte(`{}`), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrUnknownTopic, err.Kind)
}

func TestClassify_OversizedPayload_Rejected(t *testing.T) {
	big := strings.Repeat("a", classify.MaxPayloadBytes+1)
	c := classify.New(true)
	_, err := c.Classify("CM4_BLE_GW_TX", []byte(big), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrMalformedEncoding, err.Kind)
}

func TestClassify_NonUTF8Payload_Rejected(t *testing.T) {
	c := classify.New(true)
	_, err := c.Classify("CM4_BLE_GW_TX", []byte{0xff, 0xfe, 0xfd}, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrMalformedEncoding, err.Kind)
}

func TestClassify_OutOfRange_StrictDropsMessage(t *testing.T) {
	payload := `{"IMEI": "8612345", "spO2": 10}`
	c := classify.New(true)
	_, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrOutOfRange, err.Kind)
}

func TestClassify_OutOfRange_NonStrictAlsoDropsMessage(t *testing.T) {
	// spec.md §8 scenario S5: range errors are never clamped or kept,
	// only clock skew is — strict=false does not change this.
	payload := `{"IMEI": "8612345", "spO2": 10}`
	c := classify.New(false)
	_, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrOutOfRange, err.Kind)
}

func TestClassify_OutOfRange_BatchStrictDropsOnFirstViolation(t *testing.T) {
	payload := `{
		"IMEI": "8612345",
		"data": [
			{"spO2": 96, "heartRate": 68},
			{"spO2": 5, "heartRate": 68}
		]
	}`
	c := classify.New(true)
	_, err := c.Classify("iMEDE_watch/AP55", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrOutOfRange, err.Kind)
}

func TestClassify_OutOfRange_BatchNonStrictAlsoDropsOnFirstViolation(t *testing.T) {
	// spec.md §8 scenario S5: range errors are never clamped or kept,
	// only clock skew is — strict=false does not change this.
	payload := `{
		"IMEI": "8612345",
		"data": [
			{"spO2": 96, "heartRate": 68},
			{"spO2": 5, "heartRate": 68}
		]
	}`
	c := classify.New(false)
	_, err := c.Classify("iMEDE_watch/AP55", []byte(payload), time.Now())
	require.NotNil(t, err)
	assert.Equal(t, canonical.ErrOutOfRange, err.Kind)
}

func TestClassify_ClockSkew_ClampedWithWarning(t *testing.T) {
	payload := `{"IMEI": "8612345", "bodyTemperature": 36.5, "timeStamps": "2020-01-01T00:00:00Z"}`
	c := classify.New(true)
	result, err := c.Classify("iMEDE_watch/VitalSign", []byte(payload), time.Now())
	require.Nil(t, err)
	require.NotNil(t, result.Observation)
	assert.True(t, result.Observation.ClockSkewClamped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, canonical.ErrClockSkewWarning, result.Warnings[0].Kind)
}
