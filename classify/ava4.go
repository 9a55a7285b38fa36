package classify

import (
	"fmt"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/tidwall/gjson"
)

// ava4KindByDeviceCode is the AVA4 dusun_sub deviceCode -> canonical.Kind
// dispatch table from spec.md §4.3's "AVA4 topic-to-kind" table.
var ava4KindByDeviceCode = map[string]canonical.Kind{
	"BP_BIOLIGTH":  canonical.KindBP,
	"BLOOD_SUGAR":  canonical.KindGlucose,
	"SpO2":         canonical.KindSpO2,
	"BODY_TEMP":    canonical.KindTemp,
	"BODY_SCALE":   canonical.KindWeight,
	"CHOLESTEROL":  canonical.KindChol,
	"URIC":         canonical.KindUA,
	"SALT":         canonical.KindSalt,
}

// parseAVA4 classifies and extracts an AVA4 gateway envelope, per spec.md
// §4.3 and §6.2. AVA4 sub-device samples use the envelope's top-level
// "time" for every element they contain (open question §9 Q2 resolved in
// SPEC_FULL.md).
func parseAVA4(topic string, payload []byte, receivedAt time.Time) (*canonical.Observation, *canonical.PayloadError) {
	if !gjson.ValidBytes(payload) {
		return nil, canonical.NewMalformedEncoding(fmt.Sprintf("%x", payload))
	}
	root := gjson.ParseBytes(payload)

	gatewayMAC := root.Get("mac").String()
	effTime := parseUnixTime(root.Get("time"), receivedAt)

	if topic == "dusun_status" {
		obs := &canonical.Observation{
			SourceVendor:  canonical.VendorAVA4,
			GatewayMAC:    gatewayMAC,
			SubDeviceKind: canonical.KindDeviceStatus,
			EffectiveTime: effTime,
			Values:        extractDeviceStatus(root),
		}
		return obs, nil
	}

	deviceCode := root.Get("deviceCode").String()
	if deviceCode == "" {
		return nil, canonical.NewMissingDiscriminator("deviceCode")
	}
	kind, ok := ava4KindByDeviceCode[deviceCode]
	if !ok {
		return nil, canonical.NewUnknownDiscriminator("deviceCode", deviceCode)
	}

	subMAC := root.Get("data.mac").String()
	deviceList := root.Get("data.value.device_list")
	if !deviceList.Exists() || !deviceList.IsArray() {
		return nil, canonical.NewSchemaViolation("data.value.device_list", fmt.Errorf("missing or not an array"))
	}
	samples := deviceList.Array()
	if len(samples) == 0 {
		return nil, canonical.NewSchemaViolation("data.value.device_list", fmt.Errorf("empty"))
	}

	if len(samples) == 1 {
		obs := &canonical.Observation{
			SourceVendor:  canonical.VendorAVA4,
			GatewayMAC:    gatewayMAC,
			SubDeviceKind: kind,
			EffectiveTime: effTime,
			Values:        extractAVA4Values(kind, samples[0]),
		}
		if canonical.RequiresSubDeviceMAC(kind) {
			obs.SubDeviceMAC = subMAC
		}
		return obs, nil
	}

	// Multiple BLE samples in one envelope: project as batch_vitals so
	// every sample gets its own history row and FHIR Observation (spec.md
	// §3.1 batch invariant, §8 "for every batch payload with N samples").
	obs := &canonical.Observation{
		SourceVendor:  canonical.VendorAVA4,
		GatewayMAC:    gatewayMAC,
		SubDeviceMAC:  subMAC,
		SubDeviceKind: canonical.KindBatchVitals,
		EffectiveTime: effTime,
	}
	for _, s := range samples {
		obs.Batch = append(obs.Batch, canonical.Sample{
			EffectiveTime: effTime,
			Kind:          kind,
			Values:        extractAVA4Values(kind, s),
		})
	}
	return obs, nil
}

// extractAVA4Values maps AVA4 vendor field names onto canonical keys, per
// the BP example in spec.md §4.3 ("bp_sys→systolic ... PR→pulse")
// generalized across every dusun_sub kind. Unknown/extra fields are
// silently dropped, per spec.md §4.3's classifier contract.
func extractAVA4Values(kind canonical.Kind, sample gjson.Result) canonical.Values {
	v := canonical.Values{}
	switch kind {
	case canonical.KindBP:
		setIfPresent(v, "systolic", sample, "bp_high")
		setIfPresent(v, "diastolic", sample, "bp_low")
		setIfPresent(v, "pulse", sample, "PR")
	case canonical.KindGlucose:
		setIfPresent(v, "value", sample, "value", "glucose")
		if marker := sample.Get("marker").String(); marker != "" {
			v["marker"] = marker
		} else {
			v["marker"] = "none"
		}
	case canonical.KindSpO2:
		setIfPresent(v, "spo2", sample, "spo2", "SpO2")
		setIfPresent(v, "pulse", sample, "pulse", "PR")
		setIfPresent(v, "respiration", sample, "resp")
	case canonical.KindTemp:
		setIfPresent(v, "value", sample, "temp", "value")
	case canonical.KindWeight:
		setIfPresent(v, "weight", sample, "weight")
		setIfPresent(v, "bmi", sample, "bmi")
	case canonical.KindChol, canonical.KindUA, canonical.KindSalt:
		setIfPresent(v, "value", sample, "value")
	}
	return v
}

func extractDeviceStatus(root gjson.Result) canonical.Values {
	v := canonical.Values{}
	status := root.Get("data.value.status").String()
	if status == "" {
		status = root.Get("status").String()
	}
	if status == "" {
		status = "online"
	}
	v["status"] = status
	if b := root.Get("data.value.battery"); b.Exists() {
		v["battery"] = b.Num
	}
	if s := root.Get("data.value.signal"); s.Exists() {
		v["signal"] = s.Num
	}
	return v
}

// setIfPresent copies the first matching candidate field from sample into
// v[canonicalKey], trying each candidate name in order.
func setIfPresent(v canonical.Values, canonicalKey string, sample gjson.Result, candidates ...string) {
	for _, c := range candidates {
		if res := sample.Get(c); res.Exists() {
			v[canonicalKey] = res.Value()
			return
		}
	}
}

// parseUnixTime interprets a gjson numeric result as a unix timestamp
// (seconds, falling back to milliseconds for large values), defaulting to
// fallback when absent, per spec.md §3.1 "fallback = broker-receive".
func parseUnixTime(res gjson.Result, fallback time.Time) time.Time {
	if !res.Exists() {
		return fallback
	}
	n := res.Int()
	if n == 0 {
		return fallback
	}
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0).UTC()
}
