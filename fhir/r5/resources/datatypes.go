package resources

import "github.com/codeninja55/vitalgate/fhir/primitives"

// Meta represents the FHIR Resource.meta element carried by every resource.
type Meta struct {
	VersionID   *string              `json:"versionId,omitempty"`
	LastUpdated *primitives.DateTime `json:"lastUpdated,omitempty"`
	Source      *string              `json:"source,omitempty"`
	Profile     []string             `json:"profile,omitempty"`
	Tag         []Coding             `json:"tag,omitempty"`
}

// Narrative represents the FHIR Resource.text element.
type Narrative struct {
	Status string `json:"status"`
	Div    string `json:"div"`
}

// Extension represents a FHIR Extension.
type Extension struct {
	ID    *string `json:"id,omitempty"`
	URL   string  `json:"url"`
	Value any     `json:"value,omitempty"`
}

// Coding represents a FHIR Coding datatype.
type Coding struct {
	System       *string `json:"system,omitempty"`
	Version      *string `json:"version,omitempty"`
	Code         *string `json:"code,omitempty"`
	Display      *string `json:"display,omitempty"`
	UserSelected *bool   `json:"userSelected,omitempty"`
}

// CodeableConcept represents a FHIR CodeableConcept datatype.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

// CodeableReference represents a FHIR CodeableReference datatype.
type CodeableReference struct {
	Concept   *CodeableConcept `json:"concept,omitempty"`
	Reference *Reference       `json:"reference,omitempty"`
}

// Reference represents a FHIR Reference datatype.
type Reference struct {
	Reference  *string     `json:"reference,omitempty"`
	Type       *string     `json:"type,omitempty"`
	Identifier *Identifier `json:"identifier,omitempty"`
	Display    *string     `json:"display,omitempty"`
}

// Identifier represents a FHIR Identifier datatype.
type Identifier struct {
	Use      *string          `json:"use,omitempty"`
	Type     *CodeableConcept `json:"type,omitempty"`
	System   *string          `json:"system,omitempty"`
	Value    *string          `json:"value,omitempty"`
	Period   *Period          `json:"period,omitempty"`
	Assigner *Reference       `json:"assigner,omitempty"`
}

// Period represents a FHIR Period datatype.
type Period struct {
	Start *primitives.DateTime `json:"start,omitempty"`
	End   *primitives.DateTime `json:"end,omitempty"`
}

// Quantity represents a FHIR Quantity datatype.
type Quantity struct {
	Value      *float64 `json:"value,omitempty"`
	Comparator *string  `json:"comparator,omitempty"`
	Unit       *string  `json:"unit,omitempty"`
	System     *string  `json:"system,omitempty"`
	Code       *string  `json:"code,omitempty"`
}

// Range represents a FHIR Range datatype.
type Range struct {
	Low  *Quantity `json:"low,omitempty"`
	High *Quantity `json:"high,omitempty"`
}

// Ratio represents a FHIR Ratio datatype.
type Ratio struct {
	Numerator   *Quantity `json:"numerator,omitempty"`
	Denominator *Quantity `json:"denominator,omitempty"`
}

// Count represents a FHIR Count datatype (a Quantity restricted to integers).
type Count = Quantity

// Duration represents a FHIR Duration datatype (a Quantity of elapsed time).
type Duration = Quantity

// Annotation represents a FHIR Annotation datatype.
type Annotation struct {
	AuthorReference *Reference           `json:"authorReference,omitempty"`
	AuthorString    *string              `json:"authorString,omitempty"`
	Time            *primitives.DateTime `json:"time,omitempty"`
	Text            string               `json:"text"`
}

// ContactPoint represents a FHIR ContactPoint datatype.
type ContactPoint struct {
	System *string `json:"system,omitempty"`
	Value  *string `json:"value,omitempty"`
	Use    *string `json:"use,omitempty"`
	Rank   *int    `json:"rank,omitempty"`
	Period *Period `json:"period,omitempty"`
}

// ExtendedContactDetail represents a FHIR ExtendedContactDetail datatype.
type ExtendedContactDetail struct {
	Purpose      *CodeableConcept `json:"purpose,omitempty"`
	Telecom      []ContactPoint   `json:"telecom,omitempty"`
	Organization *Reference       `json:"organization,omitempty"`
	Period       *Period          `json:"period,omitempty"`
}
