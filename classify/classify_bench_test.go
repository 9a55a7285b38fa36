package classify_test

import (
	"testing"
	"time"

	"github.com/codeninja55/vitalgate/classify"
)

// BenchmarkClassify_Kati_VitalSign replaces the DICOM pixel-codec throughput
// benchmarks dropped with benchmarks/: the hot path in this repo is JSON
// classification, not pixel decoding.
func BenchmarkClassify_Kati_VitalSign(b *testing.B) {
	payload := []byte(`{"IMEI": "8612345", "heartRate": 72, "bloodPressure": {"bp_sys": 120, "bp_dia": 78}}`)
	c := classify.New(true)
	now := time.Now()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Classify("iMEDE_watch/VitalSign", payload, now); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

// BenchmarkClassify_AVA4_Batch exercises the multi-sample batch path, the
// most allocation-heavy branch of the classifier.
func BenchmarkClassify_AVA4_Batch(b *testing.B) {
	payload := []byte(`{
		"mac": "AA:BB:CC:DD:EE:FF",
		"deviceCode": "SpO2",
		"data": {
			"mac": "11:22:33:44:55:66",
			"value": {"device_list": [{"spo2": 97, "pulse": 70}, {"spo2": 96, "pulse": 71}]}
		}
	}`)
	c := classify.New(true)
	now := time.Now()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Classify("dusun_sub", payload, now); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
