package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/tidwall/gjson"
)

// katiSubTopic extracts the part of the topic after "iMEDE_watch/".
func katiSubTopic(topic string) string {
	return strings.TrimPrefix(topic, "iMEDE_watch/")
}

// parseKati classifies and extracts a Kati wrist-monitor message, per
// spec.md §4.3's "Kati topic-to-kind" table and §6.2's payload shapes.
func parseKati(topic string, payload []byte, receivedAt time.Time) (*canonical.Observation, *canonical.PayloadError) {
	if !gjson.ValidBytes(payload) {
		return nil, canonical.NewMalformedEncoding(fmt.Sprintf("%x", payload))
	}
	root := gjson.ParseBytes(payload)
	imei := root.Get("IMEI").String()
	if imei == "" {
		return nil, canonical.NewSchemaViolation("IMEI", fmt.Errorf("required"))
	}
	effTime := parseKatiTime(root, receivedAt)

	sub := katiSubTopic(topic)
	switch {
	case sub == "hb":
		return katiHeartbeat(imei, root, effTime), nil
	case strings.EqualFold(sub, "VitalSign"):
		kind, values, perr := extractKatiVital(root)
		if perr != nil {
			return nil, perr
		}
		return &canonical.Observation{
			SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
			SubDeviceKind: kind, EffectiveTime: effTime, Values: values,
		}, nil
	case strings.EqualFold(sub, "AP55"):
		return katiBatch(imei, root, effTime)
	case strings.EqualFold(sub, "location"):
		return &canonical.Observation{
			SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
			SubDeviceKind: canonical.KindLocation, EffectiveTime: effTime,
			Values: extractKatiLocation(root.Get("location")),
		}, nil
	case strings.EqualFold(sub, "sleepdata"):
		return &canonical.Observation{
			SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
			SubDeviceKind: canonical.KindSleep, EffectiveTime: effTime,
			Values: extractKatiSleep(root),
		}, nil
	case strings.EqualFold(sub, "sos"):
		return katiAlert(imei, root, effTime, canonical.KindSOS), nil
	case strings.EqualFold(sub, "fallDown"):
		return katiAlert(imei, root, effTime, canonical.KindFall), nil
	case strings.EqualFold(sub, "onlineTrigger"):
		v := canonical.Values{"status": "online"}
		return &canonical.Observation{
			SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
			SubDeviceKind: canonical.KindDeviceStatus, EffectiveTime: effTime, Values: v,
		}, nil
	default:
		return nil, canonical.NewUnknownTopic(topic)
	}
}

func katiHeartbeat(imei string, root gjson.Result, effTime time.Time) *canonical.Observation {
	v := canonical.Values{"status": "online"}
	if b := root.Get("battery"); b.Exists() {
		v["battery"] = b.Num
	}
	if s := root.Get("signalGSM"); s.Exists() {
		v["signal"] = s.Num
	}
	// steps is optional on a heartbeat per spec.md §4.3; kept alongside the
	// status fields rather than routed to its own series, since a single
	// canonical.Observation carries exactly one sub_device_kind.
	if steps := root.Get("steps"); steps.Exists() {
		v["steps"] = steps.Num
	}
	return &canonical.Observation{
		SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
		SubDeviceKind: canonical.KindDeviceStatus, EffectiveTime: effTime, Values: v,
	}
}

// extractKatiVital picks the single representative kind for a VitalSign
// reading, per spec.md §4.3 ("VitalSign → one of {bp, spo2, temp}
// depending on present fields"), in bp > spo2 > temp priority order, and
// folds the heart rate into "pulse" on whichever kind is chosen.
func extractKatiVital(root gjson.Result) (canonical.Kind, canonical.Values, *canonical.PayloadError) {
	hasBP := root.Get("bloodPressure.bp_sys").Exists() && root.Get("bloodPressure.bp_dia").Exists()
	hasSpO2 := root.Get("spO2").Exists()
	hasTemp := root.Get("bodyTemperature").Exists()

	switch {
	case hasBP:
		v := canonical.Values{
			"systolic":  root.Get("bloodPressure.bp_sys").Value(),
			"diastolic": root.Get("bloodPressure.bp_dia").Value(),
		}
		if hr := root.Get("heartRate"); hr.Exists() {
			v["pulse"] = hr.Value()
		}
		return canonical.KindBP, v, nil
	case hasSpO2:
		v := canonical.Values{"spo2": root.Get("spO2").Value()}
		if hr := root.Get("heartRate"); hr.Exists() {
			v["pulse"] = hr.Value()
		}
		return canonical.KindSpO2, v, nil
	case hasTemp:
		return canonical.KindTemp, canonical.Values{"value": root.Get("bodyTemperature").Value()}, nil
	default:
		return "", nil, canonical.NewSchemaViolation("bloodPressure|spO2|bodyTemperature", fmt.Errorf("no recognized vital field present"))
	}
}

// katiBatch classifies an AP55 multi-sample payload into batch_vitals, one
// canonical.Sample per element of the top-level "data" array (spec.md
// §6.2). Each element independently resolves its own kind via the same
// bp > spo2 > temp priority as a single VitalSign reading.
func katiBatch(imei string, root gjson.Result, envelopeTime time.Time) (*canonical.Observation, *canonical.PayloadError) {
	data := root.Get("data")
	if !data.Exists() || !data.IsArray() {
		return nil, canonical.NewSchemaViolation("data", fmt.Errorf("missing or not an array"))
	}
	elements := data.Array()
	if len(elements) == 0 {
		return nil, canonical.NewSchemaViolation("data", fmt.Errorf("empty"))
	}

	obs := &canonical.Observation{
		SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
		SubDeviceKind: canonical.KindBatchVitals, EffectiveTime: envelopeTime,
	}
	for _, el := range elements {
		kind, values, perr := extractKatiVital(el)
		if perr != nil {
			return nil, perr
		}
		obs.Batch = append(obs.Batch, canonical.Sample{EffectiveTime: envelopeTime, Kind: kind, Values: values})
	}
	return obs, nil
}

func extractKatiLocation(loc gjson.Result) canonical.Values {
	v := canonical.Values{}
	if gps := loc.Get("GPS"); gps.Exists() {
		g := canonical.Values{
			"lat": gps.Get("latitude").Value(),
			"lon": gps.Get("longitude").Value(),
		}
		if speed := gps.Get("speed"); speed.Exists() {
			g["speed"] = speed.Value()
		}
		if heading := gps.Get("header"); heading.Exists() {
			g["heading"] = heading.Value()
		}
		v["gps"] = g
	}
	if wifi := loc.Get("WiFi"); wifi.Exists() {
		v["wifi"] = wifi.String()
	}
	if lbs := loc.Get("LBS"); lbs.Exists() {
		v["lbs"] = canonical.Values{
			"mcc": lbs.Get("MCC").Value(),
			"mnc": lbs.Get("MNC").Value(),
			"lac": lbs.Get("LAC").Value(),
			"cid": lbs.Get("CID").Value(),
		}
	}
	return v
}

func extractKatiSleep(root gjson.Result) canonical.Values {
	sleep := root.Get("sleep")
	if !sleep.Exists() {
		sleep = root
	}
	v := canonical.Values{
		"period": sleep.Get("period").Value(),
		"slots":  sleep.Get("slots").Value(),
		"raw":    sleep.Raw,
	}
	return v
}

func katiAlert(imei string, root gjson.Result, effTime time.Time, kind canonical.Kind) *canonical.Observation {
	v := canonical.Values{}
	if loc := root.Get("location"); loc.Exists() {
		v["location"] = extractKatiLocation(loc)
	}
	return &canonical.Observation{
		SourceVendor: canonical.VendorKati, DeviceIMEI: imei,
		SubDeviceKind: kind, EffectiveTime: effTime, Values: v,
	}
}

// parseKatiTime reads the Kati "timeStamps" field (vendor format is not
// rigidly fixed across message types), falling back to the broker-receive
// time per spec.md §3.1.
func parseKatiTime(root gjson.Result, fallback time.Time) time.Time {
	ts := root.Get("timeStamps")
	if !ts.Exists() {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, ts.String()); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", ts.String()); err == nil {
		return t
	}
	return fallback
}
