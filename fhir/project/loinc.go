// Package project implements the FHIR projector (C4 in spec.md §4.4):
// it maps a resolved canonical observation onto one or more FHIR R5
// Observation resources.
package project

import "github.com/codeninja55/vitalgate/canonical"

// loincCode carries the code/component-code pair needed to build an
// Observation.Code or Observation.Component[i].Code entry.
type loincCode struct {
	code    string
	display string
}

// loincBP and friends below act as a small dictionary, adapted
// from the lookup-by-tag pattern of a DICOM tag registry: kind (or
// kind+component-key) in, LOINC code out.
var (
	loincBP        = loincCode{"85354-9", "Blood pressure panel"}
	loincSystolic  = loincCode{"8480-6", "Systolic blood pressure"}
	loincDiastolic = loincCode{"8462-4", "Diastolic blood pressure"}
	loincPulse     = loincCode{"8867-4", "Heart rate"}
	loincSpO2      = loincCode{"2708-6", "Oxygen saturation"}
	loincTemp      = loincCode{"8310-5", "Body temperature"}
	loincWeight    = loincCode{"29463-7", "Body weight"}
	loincGlucose   = loincCode{"2339-0", "Glucose"}
	loincChol      = loincCode{"2093-3", "Cholesterol"}
	loincUA        = loincCode{"3084-1", "Uric acid"}
	loincSalt      = loincCode{"2947-0", "Sodium"}
	loincSteps     = loincCode{"55423-8", "Number of steps"}
	loincSleep     = loincCode{"93832-4", "Sleep duration"}
	loincLocation  = loincCode{"86711-2", "Location"}
	loincDeviceSt  = loincCode{"75275-8", "Device status"}
)

// loincForKind returns the principal LOINC code for a canonical kind.
// Kinds with no direct FHIR code (fall, sos) return the device-status
// code, since they are reported as device events, not measurements.
func loincForKind(k canonical.Kind) loincCode {
	switch k {
	case canonical.KindBP:
		return loincBP
	case canonical.KindGlucose:
		return loincGlucose
	case canonical.KindSpO2:
		return loincSpO2
	case canonical.KindTemp:
		return loincTemp
	case canonical.KindWeight:
		return loincWeight
	case canonical.KindChol:
		return loincChol
	case canonical.KindUA:
		return loincUA
	case canonical.KindSalt:
		return loincSalt
	case canonical.KindSteps:
		return loincSteps
	case canonical.KindSleep:
		return loincSleep
	case canonical.KindLocation:
		return loincLocation
	case canonical.KindDeviceStatus, canonical.KindFall, canonical.KindSOS:
		return loincDeviceSt
	default:
		return loincDeviceSt
	}
}
