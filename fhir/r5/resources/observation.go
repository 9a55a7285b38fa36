package resources

import "github.com/codeninja55/vitalgate/fhir/primitives"

// ResourceTypeObservation is the FHIR resource type name for Observation.
const ResourceTypeObservation = "Observation"

// ObservationReferenceRange represents a FHIR BackboneElement for
// Observation.referenceRange.
type ObservationReferenceRange struct {
	ID                *string           `json:"id,omitempty"`
	Extension         []Extension       `json:"extension,omitempty"`
	ModifierExtension []Extension       `json:"modifierExtension,omitempty"`
	Low               *Quantity         `json:"low,omitempty"`
	High              *Quantity         `json:"high,omitempty"`
	NormalValue       *CodeableConcept  `json:"normalValue,omitempty"`
	Type              *CodeableConcept  `json:"type,omitempty"`
	AppliesTo         []CodeableConcept `json:"appliesTo,omitempty"`
	Age               *Range            `json:"age,omitempty"`
	Text              *string           `json:"text,omitempty"`
}

// ObservationComponent represents a FHIR BackboneElement for
// Observation.component — used here to carry the second half of a
// two-part reading (systolic/diastolic, value/pulse) on one resource.
type ObservationComponent struct {
	ID                *string                     `json:"id,omitempty"`
	Extension         []Extension                 `json:"extension,omitempty"`
	ModifierExtension []Extension                 `json:"modifierExtension,omitempty"`
	Code              CodeableConcept             `json:"code"`
	ValueQuantity     *Quantity                   `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept         `json:"valueCodeableConcept,omitempty"`
	ValueString       *string                     `json:"valueString,omitempty"`
	ValueBoolean      *bool                       `json:"valueBoolean,omitempty"`
	ValueInteger      *int                        `json:"valueInteger,omitempty"`
	DataAbsentReason  *CodeableConcept            `json:"dataAbsentReason,omitempty"`
	Interpretation    []CodeableConcept           `json:"interpretation,omitempty"`
	ReferenceRange    []ObservationReferenceRange `json:"referenceRange,omitempty"`
}

// Observation represents a FHIR Observation, the resource C4 (the FHIR
// projector) emits for every resolved canonical reading.
type Observation struct {
	ID                *string          `json:"id,omitempty"`
	Meta              *Meta            `json:"meta,omitempty"`
	ImplicitRules     *string          `json:"implicitRules,omitempty"`
	Language          *string          `json:"language,omitempty"`
	Text              *Narrative       `json:"text,omitempty"`
	Contained         []any            `json:"contained,omitempty"`
	Extension         []Extension      `json:"extension,omitempty"`
	ModifierExtension []Extension      `json:"modifierExtension,omitempty"`
	Identifier        []Identifier     `json:"identifier,omitempty"`
	InstantiatesCanonical *string      `json:"instantiatesCanonical,omitempty"`
	BasedOn           []Reference      `json:"basedOn,omitempty"`
	TriggeredBy       []Reference      `json:"triggeredBy,omitempty"`
	PartOf            []Reference      `json:"partOf,omitempty"`
	// registered | preliminary | final | amended | corrected | cancelled | entered-in-error | unknown
	Status   string            `json:"status"`
	Category []CodeableConcept `json:"category,omitempty"`
	Code     CodeableConcept   `json:"code"`
	Subject  *Reference        `json:"subject,omitempty"`
	Focus    []Reference       `json:"focus,omitempty"`
	Encounter *Reference       `json:"encounter,omitempty"`

	EffectiveDateTime *primitives.DateTime `json:"effectiveDateTime,omitempty"`
	EffectivePeriod   *Period              `json:"effectivePeriod,omitempty"`

	Issued *primitives.DateTime `json:"issued,omitempty"`

	Performer []Reference `json:"performer,omitempty"`

	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueString          *string          `json:"valueString,omitempty"`
	ValueBoolean         *bool            `json:"valueBoolean,omitempty"`
	ValueInteger         *int             `json:"valueInteger,omitempty"`
	ValueRange           *Range           `json:"valueRange,omitempty"`
	ValueRatio           *Ratio           `json:"valueRatio,omitempty"`

	DataAbsentReason *CodeableConcept    `json:"dataAbsentReason,omitempty"`
	Interpretation   []CodeableConcept   `json:"interpretation,omitempty"`
	Note             []Annotation        `json:"note,omitempty"`
	BodySite         *CodeableConcept    `json:"bodySite,omitempty"`
	Method           *CodeableConcept    `json:"method,omitempty"`
	Specimen         *Reference          `json:"specimen,omitempty"`
	Device           *Reference          `json:"device,omitempty"`
	ReferenceRange   []ObservationReferenceRange `json:"referenceRange,omitempty"`
	HasMember        []Reference         `json:"hasMember,omitempty"`
	DerivedFrom      []Reference         `json:"derivedFrom,omitempty"`
	Component        []ObservationComponent `json:"component,omitempty"`
}
