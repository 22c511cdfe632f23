// Package entities defines the data model of the interaction-check pipeline:
// raw and canonical drug shapes, patient context, the parsed model result,
// and the ordered action/severity/triage categories.
package entities

import (
	"encoding/json"
	"fmt"
)

// Route is the administration route of a drug.
type Route string

const (
	RoutePO    Route = "po"
	RouteIV    Route = "iv"
	RouteIM    Route = "im"
	RouteSC    Route = "sc"
	RouteInhal Route = "inhal"
	RouteTop   Route = "top"
)

// Valid reports whether the route belongs to the fixed enumeration.
func (r Route) Valid() bool {
	switch r {
	case RoutePO, RouteIV, RouteIM, RouteSC, RouteInhal, RouteTop:
		return true
	}
	return false
}

// DrugInput is the raw request shape for one drug: either a bare name string
// or a structured record. Both forms decode into the same struct.
type DrugInput struct {
	Name                 string   `json:"name"`
	DoseMg               *float64 `json:"dose_mg,omitempty"`
	Route                Route    `json:"route,omitempty"`
	Freq                 string   `json:"freq,omitempty"`
	ActiveIngredientHint []string `json:"active_ingredient_hint,omitempty"`
}

// UnmarshalJSON accepts either "doliprane" or {"name": "doliprane", ...}.
func (d *DrugInput) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*d = DrugInput{Name: name}
		return nil
	}

	type alias DrugInput
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("drug must be a name string or an object: %w", err)
	}
	*d = DrugInput(a)
	return nil
}

// CanonicalDrug is the normalized internal representation of a drug mention.
// Name is lowercase, diacritic-stripped and whitespace-collapsed.
type CanonicalDrug struct {
	Name                  string   `json:"name"`
	DoseMg                *float64 `json:"dose_mg,omitempty"`
	Route                 Route    `json:"route"`
	Freq                  string   `json:"freq,omitempty"`
	ActiveIngredientHints []string `json:"active_ingredient_hints,omitempty"`
}

// PatientContext carries optional clinical context. Absent fields mean
// "unknown", never "negative".
type PatientContext struct {
	Age               *int     `json:"age,omitempty"`
	Sex               string   `json:"sex,omitempty"`
	WeightKg          *float64 `json:"weight_kg,omitempty"`
	PregnancyStatus   string   `json:"pregnancy_status,omitempty"`
	Breastfeeding     string   `json:"breastfeeding,omitempty"`
	EGFR              *float64 `json:"egfr,omitempty"`
	CKDStage          string   `json:"ckd_stage,omitempty"`
	HepaticImpairment string   `json:"hepatic_impairment,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
	Conditions        []string `json:"conditions,omitempty"`
	RiskFlags         []string `json:"risk_flags,omitempty"`
}

// Action is the recommended clinical response category, ordered by
// increasing restrictiveness.
type Action string

const (
	ActionOK          Action = "OK"
	ActionSurveiller  Action = "Surveiller"
	ActionAjusterDose Action = "Ajuster dose"
	ActionEviter      Action = "Éviter/Contre-indiqué"
)

// Rank returns the restrictiveness rank of the action. Unknown values rank
// lowest so a corrupt category can never mask an escalation.
func (a Action) Rank() int {
	switch a {
	case ActionSurveiller:
		return 1
	case ActionAjusterDose:
		return 2
	case ActionEviter:
		return 3
	default:
		return 0
	}
}

// ImpliedSeverity returns the minimum severity implied by an action. It is
// used as a floor: rules and the model may raise severity above it, never
// below.
func (a Action) ImpliedSeverity() Severity {
	switch a {
	case ActionSurveiller, ActionAjusterDose:
		return SeverityModeree
	case ActionEviter:
		return SeverityContreIndiquee
	default:
		return SeverityAucune
	}
}

// Severity is the assessed interaction risk level, ordered by increasing
// risk.
type Severity string

const (
	SeverityAucune         Severity = "aucune"
	SeverityMineure        Severity = "mineure"
	SeverityModeree        Severity = "modérée"
	SeverityMajeure        Severity = "majeure"
	SeverityContreIndiquee Severity = "contre-indiquée"
)

// Rank returns the risk rank of the severity. Unknown values rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityMineure:
		return 1
	case SeverityModeree:
		return 2
	case SeverityMajeure:
		return 3
	case SeverityContreIndiquee:
		return 4
	default:
		return 0
	}
}

// Triage is the three-level coarse risk banding shown to the user.
type Triage string

const (
	TriageVert  Triage = "vert"
	TriageAmbre Triage = "ambre"
	TriageRouge Triage = "rouge"
)

// TriageFor derives the triage band from an action. It is a pure function:
// OK maps to vert, Surveiller to ambre, anything more restrictive to rouge.
func TriageFor(a Action) Triage {
	switch a {
	case ActionOK:
		return TriageVert
	case ActionSurveiller:
		return TriageAmbre
	default:
		return TriageRouge
	}
}

// ModelResult is the validated, patient-independent interaction assessment
// produced by the parser (or its fallback). When the upstream response could
// not be parsed, RawText holds the original text and the remaining fields are
// keyword-derived.
type ModelResult struct {
	Summary           string   `json:"summary"`
	Bullets           []string `json:"bullets"`
	Action            Action   `json:"action"`
	Severity          Severity `json:"severity"`
	Mechanism         string   `json:"mechanism,omitempty"`
	Monitoring        []string `json:"monitoring,omitempty"`
	PregnancyCategory string   `json:"pregnancy_category,omitempty"`
	RawText           string   `json:"raw_text,omitempty"`
}

// FinalResult is the base result plus patient-context escalations, notes and
// citations.
type FinalResult struct {
	ModelResult
	Triage               Triage   `json:"triage"`
	PatientSpecificNotes []string `json:"patient_specific_notes,omitempty"`
	Citations            []string `json:"citations,omitempty"`
}

// InteractionRequest is the inbound body of POST /api/check-interaction.
type InteractionRequest struct {
	Drug1   DrugInput       `json:"drug1"`
	Drug2   DrugInput       `json:"drug2"`
	Patient *PatientContext `json:"patient,omitempty"`
	Locale  string          `json:"locale,omitempty"`
}
