package project

import (
	"fmt"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/fhir/primitives"
	"github.com/codeninja55/vitalgate/fhir/r5/resources"
	"github.com/codeninja55/vitalgate/identity"
)

const categorySystem = "http://terminology.hl7.org/CodeSystem/observation-category"
const loincSystem = "http://loinc.org"
const unitsSystem = "http://unitsofmeasure.org"

// unitByKind carries the UCUM unit code for a kind's principal value, per
// the units column of spec.md §3.3's canonical-values table.
var unitByKind = map[canonical.Kind]string{
	canonical.KindSpO2:    "%",
	canonical.KindTemp:    "Cel",
	canonical.KindWeight:  "kg",
	canonical.KindGlucose: "mg/dL",
	canonical.KindChol:    "mg/dL",
	canonical.KindUA:      "mg/dL",
	canonical.KindSalt:    "mmol/L",
	canonical.KindSteps:   "1",
}

// Project turns a resolved canonical.Observation into zero or more FHIR
// Observation resources, per spec.md §4.4. An unresolved identity
// yields an empty projection — FHIR write is skipped entirely, the
// record still reaches history via the C5 router.
func Project(obs *canonical.Observation, res identity.Resolution, now time.Time) []resources.Observation {
	if !res.Resolved() {
		return nil
	}
	subject := subjectReference(obs, res)
	performer := resources.Reference{Reference: strPtr("Device/" + obs.DeviceID())}

	if obs.SubDeviceKind == canonical.KindBatchVitals {
		out := make([]resources.Observation, 0, len(obs.Batch))
		for _, sample := range obs.Batch {
			if o := buildObservation(sample.Kind, sample.Values, sample.EffectiveTime, subject, performer, now); o != nil {
				out = append(out, *o)
			}
		}
		return out
	}

	o := buildObservation(obs.SubDeviceKind, obs.Values, obs.EffectiveTime, subject, performer, now)
	if o == nil {
		return nil
	}
	return []resources.Observation{*o}
}

// subjectReference implements the Qube-Vital open-question resolution
// (spec.md §9 Q3): hospital-scoped samples reference Organization, every
// other vendor references Patient.
func subjectReference(obs *canonical.Observation, res identity.Resolution) resources.Reference {
	if obs.SourceVendor == canonical.VendorQube {
		return resources.Reference{Reference: strPtr("Organization/" + res.HospitalID)}
	}
	return resources.Reference{Reference: strPtr("Patient/" + res.PatientID)}
}

func buildObservation(kind canonical.Kind, v canonical.Values, effective time.Time, subject, performer resources.Reference, now time.Time) *resources.Observation {
	base := func(code loincCode) *resources.Observation {
		eff := primitives.NewDateTime(effective)
		issued := primitives.NewDateTime(now)
		return &resources.Observation{
			Status: "final",
			Category: []resources.CodeableConcept{{
				Coding: []resources.Coding{{
					System:  strPtr(categorySystem),
					Code:    strPtr("vital-signs"),
					Display: strPtr("Vital Signs"),
				}},
			}},
			Code: resources.CodeableConcept{
				Coding: []resources.Coding{{System: strPtr(loincSystem), Code: strPtr(code.code), Display: strPtr(code.display)}},
			},
			Subject:           &subject,
			Performer:         []resources.Reference{performer},
			EffectiveDateTime: &eff,
			Issued:            &issued,
		}
	}

	switch kind {
	case canonical.KindBP:
		o := base(loincBP)
		sys, err := v.Decimal("systolic")
		if err != nil {
			return nil
		}
		dia, err := v.Decimal("diastolic")
		if err != nil {
			return nil
		}
		sysF, _ := sys.Float64()
		diaF, _ := dia.Float64()
		o.Component = []resources.ObservationComponent{
			{Code: codeableConcept(loincSystolic), ValueQuantity: quantity(sysF, "mmHg", "mm[Hg]")},
			{Code: codeableConcept(loincDiastolic), ValueQuantity: quantity(diaF, "mmHg", "mm[Hg]")},
		}
		return o

	case canonical.KindSpO2:
		o := base(loincSpO2)
		val, err := v.Decimal("spo2")
		if err != nil {
			return nil
		}
		valF, _ := val.Float64()
		o.ValueQuantity = quantity(valF, "%", "%")
		if pulse, ok, _ := v.OptionalDecimal("pulse"); ok {
			pulseF, _ := pulse.Float64()
			o.Component = []resources.ObservationComponent{
				{Code: codeableConcept(loincPulse), ValueQuantity: quantity(pulseF, "beats/min", "/min")},
			}
		}
		return o

	case canonical.KindTemp, canonical.KindWeight, canonical.KindGlucose,
		canonical.KindChol, canonical.KindUA, canonical.KindSalt, canonical.KindSteps:
		o := base(loincForKind(kind))
		valueKey := "value"
		switch kind {
		case canonical.KindWeight:
			valueKey = "weight"
		case canonical.KindSteps:
			valueKey = "steps"
		}
		val, err := v.Decimal(valueKey)
		if err != nil {
			return nil
		}
		valF, _ := val.Float64()
		unit := unitByKind[kind]
		o.ValueQuantity = quantity(valF, unit, unit)
		return o

	case canonical.KindSleep:
		o := base(loincSleep)
		if raw, ok := v.Object("raw"); ok {
			o.ValueString = strPtr(fmt.Sprintf("%v", map[string]any(raw)))
		}
		return o

	case canonical.KindLocation:
		o := base(loincLocation)
		o.ValueString = strPtr(locationSummary(v))
		return o

	case canonical.KindDeviceStatus:
		o := base(loincDeviceSt)
		status, err := v.String("status")
		if err != nil {
			return nil
		}
		o.ValueCodeableConcept = &resources.CodeableConcept{Text: strPtr(status)}
		return o

	case canonical.KindFall:
		o := base(loincDeviceSt)
		o.ValueCodeableConcept = &resources.CodeableConcept{Text: strPtr("fall-detected")}
		return o

	case canonical.KindSOS:
		o := base(loincDeviceSt)
		o.ValueCodeableConcept = &resources.CodeableConcept{Text: strPtr("sos-triggered")}
		return o

	default:
		return nil
	}
}

func locationSummary(v canonical.Values) string {
	if gps, ok := v.Object("gps"); ok {
		lat, _, _ := gps.OptionalDecimal("lat")
		lon, _, _ := gps.OptionalDecimal("lon")
		return fmt.Sprintf("gps:%s,%s", lat.String(), lon.String())
	}
	if lbs, ok := v.Object("lbs"); ok {
		cid, _ := lbs.String("cid")
		return "lbs:" + cid
	}
	return "unknown"
}

func codeableConcept(c loincCode) resources.CodeableConcept {
	return resources.CodeableConcept{
		Coding: []resources.Coding{{System: strPtr(loincSystem), Code: strPtr(c.code), Display: strPtr(c.display)}},
	}
}

func quantity(value float64, unit, ucumCode string) *resources.Quantity {
	v := value
	return &resources.Quantity{Value: &v, Unit: strPtr(unit), System: strPtr(unitsSystem), Code: strPtr(ucumCode)}
}

func strPtr(s string) *string { return &s }
