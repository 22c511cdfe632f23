// Package validation checks inbound interaction requests before any
// canonicalization or upstream call happens. Violations are collected per
// field so a single 400 response can report all of them at once.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/entities"
)

const (
	maxAge      = 130
	maxWeightKg = 500
	maxEGFR     = 200
	maxDoseMg   = 100000
)

// FieldErrors maps a request field to its violation message.
type FieldErrors map[string]string

// Error joins the violations in field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return strings.Join(parts, "; ")
}

// ValidateRequest checks the interaction request. A nil return means the
// request is safe to canonicalize.
func ValidateRequest(req *entities.InteractionRequest) FieldErrors {
	errs := make(FieldErrors)

	validateDrug(errs, "drug1", req.Drug1)
	validateDrug(errs, "drug2", req.Drug2)
	validatePatient(errs, req.Patient)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateDrug(errs FieldErrors, field string, d entities.DrugInput) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		errs[field] = "le nom du médicament est requis"
		return
	}
	if len([]rune(name)) > canonical.MaxNameLength {
		errs[field] = fmt.Sprintf("le nom dépasse %d caractères", canonical.MaxNameLength)
	}
	if d.Route != "" && !d.Route.Valid() {
		errs[field+".route"] = "voie d'administration inconnue (po, iv, im, sc, inhal, top)"
	}
	if d.DoseMg != nil && (*d.DoseMg <= 0 || *d.DoseMg > maxDoseMg) {
		errs[field+".dose_mg"] = "dose hors limites"
	}
}

func validatePatient(errs FieldErrors, p *entities.PatientContext) {
	if p == nil {
		return
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > maxAge) {
		errs["patient.age"] = fmt.Sprintf("l'âge doit être compris entre 0 et %d", maxAge)
	}
	if p.WeightKg != nil && (*p.WeightKg <= 0 || *p.WeightKg > maxWeightKg) {
		errs["patient.weight_kg"] = "poids hors limites"
	}
	if p.EGFR != nil && (*p.EGFR < 0 || *p.EGFR > maxEGFR) {
		errs["patient.egfr"] = "DFG hors limites"
	}
}
