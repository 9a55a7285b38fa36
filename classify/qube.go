package classify

import (
	"fmt"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/tidwall/gjson"
)

// qubeKindByType is the Qube-Vital "type" discriminator -> canonical.Kind
// table, per spec.md §4.3's "Qube topic-to-kind" table.
var qubeKindByType = map[string]canonical.Kind{
	"BLOOD_PRESSURE": canonical.KindBP,
	"BLOOD_SUGAR":    canonical.KindGlucose,
	"SPO2":           canonical.KindSpO2,
	"TEMPERATURE":    canonical.KindTemp,
}

// parseQube classifies and extracts a Qube-Vital hospital-box sample, per
// spec.md §4.3 and §6.2.
func parseQube(topic string, payload []byte, receivedAt time.Time) (*canonical.Observation, *canonical.PayloadError) {
	if !gjson.ValidBytes(payload) {
		return nil, canonical.NewMalformedEncoding(fmt.Sprintf("%x", payload))
	}
	root := gjson.ParseBytes(payload)

	imei := root.Get("device_id").String()
	if imei == "" {
		return nil, canonical.NewSchemaViolation("device_id", fmt.Errorf("required"))
	}

	typ := root.Get("type").String()
	if typ == "" {
		return nil, canonical.NewMissingDiscriminator("type")
	}
	kind, ok := qubeKindByType[typ]
	if !ok {
		return nil, canonical.NewUnknownDiscriminator("type", typ)
	}

	effTime := parseQubeTime(root.Get("timestamp"), receivedAt)
	value := root.Get("data.value")
	if !value.Exists() {
		return nil, canonical.NewSchemaViolation("data.value", fmt.Errorf("required"))
	}

	v := canonical.Values{}
	switch kind {
	case canonical.KindBP:
		setIfPresent(v, "systolic", value, "systolic")
		setIfPresent(v, "diastolic", value, "diastolic")
		setIfPresent(v, "pulse", value, "pulse")
	case canonical.KindGlucose:
		setIfPresent(v, "value", value, "value")
		if marker := value.Get("marker").String(); marker != "" {
			v["marker"] = marker
		} else {
			v["marker"] = "none"
		}
	case canonical.KindSpO2:
		setIfPresent(v, "spo2", value, "spo2")
		setIfPresent(v, "pulse", value, "pulse")
	case canonical.KindTemp:
		setIfPresent(v, "value", value, "value")
	}

	return &canonical.Observation{
		SourceVendor: canonical.VendorQube, DeviceIMEI: imei,
		SubDeviceKind: kind, EffectiveTime: effTime, Values: v,
	}, nil
}

func parseQubeTime(res gjson.Result, fallback time.Time) time.Time {
	if !res.Exists() {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, res.String()); err == nil {
		return t
	}
	return fallback
}
