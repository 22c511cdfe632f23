// Package rules applies deterministic, patient-context-aware escalation over
// a parsed interaction result. Rules are independent and may only escalate:
// the final action and severity are max-aggregations over ranks, so no rule
// can ever downgrade what the model or another rule produced. Any bug here
// must fail toward over-caution.
package rules

import (
	"fmt"
	"strings"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/entities"
)

// accumulator carries the escalation state folded over the rule catalogue.
type accumulator struct {
	action     entities.Action
	severity   entities.Severity
	notes      []string
	monitoring []string
	seen       map[string]bool
}

// escalate raises action and severity to at least the given ranks and
// records the note. Passing ActionOK or SeverityAucune leaves that axis
// untouched.
func (a *accumulator) escalate(action entities.Action, severity entities.Severity, note string) {
	if action.Rank() > a.action.Rank() {
		a.action = action
	}
	if severity.Rank() > a.severity.Rank() {
		a.severity = severity
	}
	a.notes = append(a.notes, note)
}

func (a *accumulator) addMonitoring(items ...string) {
	for _, item := range items {
		if item == "" || a.seen[item] {
			continue
		}
		a.seen[item] = true
		a.monitoring = append(a.monitoring, item)
	}
}

// ruleInput is what every rule may look at.
type ruleInput struct {
	base    entities.ModelResult
	patient *entities.PatientContext
	drug1   entities.CanonicalDrug
	drug2   entities.CanonicalDrug
}

type rule struct {
	name  string
	apply func(acc *accumulator, in ruleInput)
}

// catalogue is evaluated in order; the escalated value is order-insensitive
// (max-aggregation) but notes accumulate in this order.
var catalogue = []rule{
	{"allergy-class", allergyRule},
	{"age-under-12", ageUnder12Rule},
	{"age-over-75", ageOver75Rule},
	{"renal", renalRule},
	{"hepatic", hepaticRule},
	{"pregnancy", pregnancyRule},
	{"breastfeeding", breastfeedingRule},
	{"qt-prolongation", qtRule},
	{"fall-risk", fallRiskRule},
}

// Apply folds the rule catalogue over the base result and returns the final
// triage verdict. The base result may come from the cache: patient notes are
// recomputed here on every call, never cached.
func Apply(base entities.ModelResult, patient *entities.PatientContext, d1, d2 entities.CanonicalDrug) entities.FinalResult {
	acc := &accumulator{
		action:   base.Action,
		severity: base.Severity,
		seen:     make(map[string]bool),
	}
	acc.addMonitoring(base.Monitoring...)

	in := ruleInput{base: base, patient: patient, drug1: d1, drug2: d2}
	for _, r := range catalogue {
		r.apply(acc, in)
	}

	// Action-implied severity is a floor, not a ceiling.
	if floor := acc.action.ImpliedSeverity(); floor.Rank() > acc.severity.Rank() {
		acc.severity = floor
	}

	final := entities.FinalResult{
		ModelResult:          base,
		Triage:               entities.TriageFor(acc.action),
		PatientSpecificNotes: acc.notes,
	}
	final.Action = acc.action
	final.Severity = acc.severity
	final.Monitoring = acc.monitoring
	return final
}

// matchFamily returns the allergy family a folded term belongs to, or "".
func matchFamily(folded string) string {
	if folded == "" {
		return ""
	}
	for _, family := range familyOrder {
		for _, term := range allergyFamilies[family] {
			if strings.Contains(folded, term) {
				return family
			}
			// Reverse containment catches truncated user input ("penicil"),
			// guarded against degenerate short strings.
			if len(folded) >= 4 && strings.Contains(term, folded) {
				return family
			}
		}
	}
	return ""
}

// drugFamily classifies a drug by its normalized name and ingredient hints.
func drugFamily(d entities.CanonicalDrug) string {
	if f := matchFamily(d.Name); f != "" {
		return f
	}
	for _, hint := range d.ActiveIngredientHints {
		if f := matchFamily(hint); f != "" {
			return f
		}
	}
	return ""
}

func allergyRule(acc *accumulator, in ruleInput) {
	if in.patient == nil || len(in.patient.Allergies) == 0 {
		return
	}

	drugs := []entities.CanonicalDrug{in.drug1, in.drug2}
	for _, allergy := range in.patient.Allergies {
		allergyFamily := matchFamily(canonical.NormalizeName(allergy))
		if allergyFamily == "" {
			continue
		}
		for _, d := range drugs {
			df := drugFamily(d)
			if df == "" {
				continue
			}
			switch {
			case df == allergyFamily:
				acc.escalate(entities.ActionEviter, entities.SeverityContreIndiquee,
					fmt.Sprintf("Allergie déclarée à la famille %s : %s est contre-indiqué.", allergyFamily, d.Name))
			case allergyFamily == familyPenicillin && df == familyCephalosporin:
				// Cross-reactivity caution, not a full contraindication.
				acc.escalate(entities.ActionSurveiller, entities.SeverityModeree,
					fmt.Sprintf("Allergie aux pénicillines : risque de réactivité croisée avec %s (céphalosporine), prudence.", d.Name))
			}
		}
	}
}

func ageUnder12Rule(acc *accumulator, in ruleInput) {
	if in.patient == nil || in.patient.Age == nil || *in.patient.Age >= 12 {
		return
	}
	acc.escalate(entities.ActionAjusterDose, entities.SeverityModeree,
		fmt.Sprintf("Patient de %d ans : posologie pédiatrique à adapter au poids.", *in.patient.Age))
	acc.addMonitoring("Vérifier la posologie en mg/kg")
}

func ageOver75Rule(acc *accumulator, in ruleInput) {
	if in.patient == nil || in.patient.Age == nil || *in.patient.Age <= 75 {
		return
	}
	acc.escalate(entities.ActionSurveiller, entities.SeverityModeree,
		fmt.Sprintf("Patient âgé (%d ans, plus de 75 ans) : sensibilité accrue aux interactions.", *in.patient.Age))
	acc.addMonitoring(
		"Surveiller confusion et risque de chute",
		"Surveiller la fonction rénale",
		"Surveiller la tension (hypotension)",
	)
}

func renalRule(acc *accumulator, in ruleInput) {
	if in.patient == nil {
		return
	}
	severeEGFR := in.patient.EGFR != nil && *in.patient.EGFR < 30
	stage := strings.TrimSpace(in.patient.CKDStage)
	severeStage := strings.Contains(stage, "4") || strings.Contains(stage, "5")
	if !severeEGFR && !severeStage {
		return
	}
	acc.escalate(entities.ActionAjusterDose, entities.SeverityModeree,
		"Insuffisance rénale sévère (DFG < 30 mL/min) : adaptation posologique nécessaire.")
	acc.addMonitoring("Surveiller la fonction rénale")
}

func hepaticRule(acc *accumulator, in ruleInput) {
	if in.patient == nil {
		return
	}
	level := canonical.NormalizeName(in.patient.HepaticImpairment)
	switch {
	case strings.Contains(level, "sever") || strings.Contains(level, "grave"):
		acc.escalate(entities.ActionAjusterDose, entities.SeverityMajeure,
			"Insuffisance hépatique sévère : métabolisme réduit, adaptation posologique nécessaire.")
	case strings.Contains(level, "moder"):
		acc.escalate(entities.ActionAjusterDose, entities.SeverityModeree,
			"Insuffisance hépatique modérée : adaptation posologique à envisager.")
	}
}

func pregnancyRule(acc *accumulator, in ruleInput) {
	if in.patient == nil {
		return
	}
	status := canonical.NormalizeName(in.patient.PregnancyStatus)
	if status != "enceinte" && status != "oui" && status != "pregnant" {
		return
	}
	switch in.base.PregnancyCategory {
	case "D", "X":
		acc.escalate(entities.ActionEviter, entities.SeverityContreIndiquee,
			fmt.Sprintf("Grossesse : catégorie %s, contre-indiqué.", in.base.PregnancyCategory))
	case "C":
		acc.escalate(entities.ActionSurveiller, entities.SeverityModeree,
			"Grossesse : catégorie C, à n'utiliser que si le bénéfice dépasse le risque.")
	default:
		// Unknown category gets the conservative treatment.
		acc.escalate(entities.ActionSurveiller, entities.SeverityModeree,
			"Grossesse : catégorie non établie, prudence par défaut.")
	}
}

func breastfeedingRule(acc *accumulator, in ruleInput) {
	if in.patient == nil {
		return
	}
	status := canonical.NormalizeName(in.patient.Breastfeeding)
	if status != "oui" && status != "yes" {
		return
	}
	acc.escalate(entities.ActionSurveiller, entities.SeverityAucune,
		"Allaitement : passage possible dans le lait maternel.")
	acc.addMonitoring("Surveiller le nourrisson (somnolence, alimentation)")
}

func qtRule(acc *accumulator, in ruleInput) {
	if !hasRiskFlag(in.patient, "qt") {
		return
	}
	acc.escalate(entities.ActionSurveiller, entities.SeverityModeree,
		"Antécédent d'allongement du QT : risque de torsades de pointes.")
	acc.addMonitoring("ECG de contrôle", "Surveiller kaliémie et magnésémie")
}

func fallRiskRule(acc *accumulator, in ruleInput) {
	if !hasRiskFlag(in.patient, "chute") && !hasRiskFlag(in.patient, "fall") {
		return
	}
	acc.escalate(entities.ActionSurveiller, entities.SeverityAucune,
		"Risque de chute signalé : attention aux effets sédatifs et hypotenseurs.")
	acc.addMonitoring("Surveiller sédation et équilibre")
}

func hasRiskFlag(patient *entities.PatientContext, stem string) bool {
	if patient == nil {
		return false
	}
	for _, flag := range patient.RiskFlags {
		if strings.Contains(canonical.NormalizeName(flag), stem) {
			return true
		}
	}
	return false
}
