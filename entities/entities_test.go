package entities

import (
	"encoding/json"
	"testing"
)

func TestDrugInputUnmarshalBareString(t *testing.T) {
	var d DrugInput
	if err := json.Unmarshal([]byte(`"doliprane"`), &d); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Name != "doliprane" {
		t.Errorf("Expected name doliprane, got %s", d.Name)
	}
}

func TestDrugInputUnmarshalObject(t *testing.T) {
	raw := `{"name": "kardegic", "dose_mg": 75, "route": "po", "freq": "1/j"}`

	var d DrugInput
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Name != "kardegic" {
		t.Errorf("Expected name kardegic, got %s", d.Name)
	}
	if d.DoseMg == nil || *d.DoseMg != 75 {
		t.Errorf("Expected dose 75, got %v", d.DoseMg)
	}
	if d.Route != RoutePO {
		t.Errorf("Expected route po, got %s", d.Route)
	}
}

func TestDrugInputUnmarshalRejectsOtherTypes(t *testing.T) {
	for _, raw := range []string{`42`, `["a"]`, `true`} {
		var d DrugInput
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			t.Errorf("Expected error for %s, got nil", raw)
		}
	}
}

func TestRouteValid(t *testing.T) {
	valid := []Route{RoutePO, RouteIV, RouteIM, RouteSC, RouteInhal, RouteTop}
	for _, r := range valid {
		if !r.Valid() {
			t.Errorf("Expected route %s to be valid", r)
		}
	}
	for _, r := range []Route{"oral", "PO", ""} {
		if r.Valid() {
			t.Errorf("Expected route %q to be invalid", r)
		}
	}
}

func TestActionRankOrdering(t *testing.T) {
	ordered := []Action{ActionOK, ActionSurveiller, ActionAjusterDose, ActionEviter}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("Expected %s to outrank %s", ordered[i], ordered[i-1])
		}
	}

	if Action("n'importe quoi").Rank() != 0 {
		t.Error("Expected unknown action to rank lowest")
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityAucune, SeverityMineure, SeverityModeree, SeverityMajeure, SeverityContreIndiquee}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("Expected %s to outrank %s", ordered[i], ordered[i-1])
		}
	}
}

func TestImpliedSeverity(t *testing.T) {
	testCases := []struct {
		action   Action
		expected Severity
	}{
		{ActionOK, SeverityAucune},
		{ActionSurveiller, SeverityModeree},
		{ActionAjusterDose, SeverityModeree},
		{ActionEviter, SeverityContreIndiquee},
	}

	for _, tc := range testCases {
		if got := tc.action.ImpliedSeverity(); got != tc.expected {
			t.Errorf("ImpliedSeverity(%s) = %s, expected %s", tc.action, got, tc.expected)
		}
	}
}

func TestTriageFor(t *testing.T) {
	testCases := []struct {
		action   Action
		expected Triage
	}{
		{ActionOK, TriageVert},
		{ActionSurveiller, TriageAmbre},
		{ActionAjusterDose, TriageRouge},
		{ActionEviter, TriageRouge},
	}

	for _, tc := range testCases {
		if got := TriageFor(tc.action); got != tc.expected {
			t.Errorf("TriageFor(%s) = %s, expected %s", tc.action, got, tc.expected)
		}
	}
}
