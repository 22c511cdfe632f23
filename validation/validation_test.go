package validation

import (
	"strings"
	"testing"

	"github.com/mokokaf/interactions-api/entities"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func validRequest() *entities.InteractionRequest {
	return &entities.InteractionRequest{
		Drug1: entities.DrugInput{Name: "paracétamol"},
		Drug2: entities.DrugInput{Name: "ibuprofène"},
	}
}

func TestValidateRequestValid(t *testing.T) {
	if errs := ValidateRequest(validRequest()); errs != nil {
		t.Errorf("Expected no violations, got %v", errs)
	}
}

func TestValidateRequestMissingNames(t *testing.T) {
	req := &entities.InteractionRequest{
		Drug1: entities.DrugInput{Name: "  "},
		Drug2: entities.DrugInput{Name: ""},
	}

	errs := ValidateRequest(req)
	if errs == nil {
		t.Fatal("Expected violations, got nil")
	}
	if errs["drug1"] == "" || errs["drug2"] == "" {
		t.Errorf("Expected violations on both drugs, got %v", errs)
	}
}

func TestValidateRequestInvalidRoute(t *testing.T) {
	req := validRequest()
	req.Drug1.Route = "oral"

	errs := ValidateRequest(req)
	if errs == nil || errs["drug1.route"] == "" {
		t.Errorf("Expected a route violation, got %v", errs)
	}
}

func TestValidateRequestDoseBounds(t *testing.T) {
	for _, dose := range []float64{0, -5, 200000} {
		req := validRequest()
		req.Drug1.DoseMg = floatPtr(dose)

		errs := ValidateRequest(req)
		if errs == nil || errs["drug1.dose_mg"] == "" {
			t.Errorf("Expected a dose violation for %g, got %v", dose, errs)
		}
	}
}

func TestValidateRequestLongName(t *testing.T) {
	req := validRequest()
	req.Drug2.Name = strings.Repeat("a", 200)

	errs := ValidateRequest(req)
	if errs == nil || errs["drug2"] == "" {
		t.Errorf("Expected a length violation, got %v", errs)
	}
}

func TestValidateRequestPatientBounds(t *testing.T) {
	testCases := []struct {
		name    string
		patient *entities.PatientContext
		field   string
	}{
		{"negative age", &entities.PatientContext{Age: intPtr(-1)}, "patient.age"},
		{"age too high", &entities.PatientContext{Age: intPtr(131)}, "patient.age"},
		{"zero weight", &entities.PatientContext{WeightKg: floatPtr(0)}, "patient.weight_kg"},
		{"negative egfr", &entities.PatientContext{EGFR: floatPtr(-3)}, "patient.egfr"},
		{"egfr too high", &entities.PatientContext{EGFR: floatPtr(250)}, "patient.egfr"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.Patient = tc.patient

			errs := ValidateRequest(req)
			if errs == nil || errs[tc.field] == "" {
				t.Errorf("Expected a %s violation, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateRequestPatientBoundariesPass(t *testing.T) {
	req := validRequest()
	req.Patient = &entities.PatientContext{Age: intPtr(0), EGFR: floatPtr(0)}

	if errs := ValidateRequest(req); errs != nil {
		t.Errorf("Expected boundary values to pass, got %v", errs)
	}

	req.Patient = &entities.PatientContext{Age: intPtr(130), EGFR: floatPtr(200)}
	if errs := ValidateRequest(req); errs != nil {
		t.Errorf("Expected boundary values to pass, got %v", errs)
	}
}

func TestFieldErrorsError(t *testing.T) {
	errs := FieldErrors{"drug1": "requis", "patient.age": "hors limites"}
	msg := errs.Error()

	if !strings.Contains(msg, "drug1: requis") || !strings.Contains(msg, "patient.age: hors limites") {
		t.Errorf("Unexpected error message: %q", msg)
	}
	// Field order is deterministic.
	if strings.Index(msg, "drug1") > strings.Index(msg, "patient.age") {
		t.Errorf("Expected sorted fields, got %q", msg)
	}
}
