//go:build ignore

// Command project_observation is a runnable example showing the shape C4
// (the FHIR projector) produces for a resolved AVA4 blood-pressure reading.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/fhir/project"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/google/uuid"
)

func main() {
	obs := &canonical.Observation{
		IngestID:      uuid.New(),
		SourceVendor:  canonical.VendorAVA4,
		SourceTopic:   "dusun_sub",
		GatewayMAC:    "AA:BB:CC:DD:EE:FF",
		SubDeviceMAC:  "11:22:33:44:55:66",
		SubDeviceKind: canonical.KindBP,
		EffectiveTime: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		ReceivedTime:  time.Date(2024, 1, 15, 10, 30, 5, 0, time.UTC),
		Values: canonical.Values{
			"systolic":  120,
			"diastolic": 80,
			"pulse":     72,
		},
	}

	res := identity.Resolution{PatientID: "example", Confidence: identity.ConfidenceExact}
	projected := project.Project(obs, res, time.Now())

	data, err := json.MarshalIndent(projected, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling observation: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
