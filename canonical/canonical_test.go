package canonical

import (
	"strings"
	"testing"

	"github.com/mokokaf/interactions-api/entities"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Paracétamol", "paracetamol"},
		{"PARACETAMOL", "paracetamol"},
		{"  paracetamol  ", "paracetamol"},
		{"Kardégic 75", "kardegic 75"},
		{"acide   acétylsalicylique", "acide acetylsalicylique"},
		{"Co-Amoxiclav", "co-amoxiclav"},
		{"Doliprane®", "doliprane"},
		{"ÏBUPROFÈNE", "ibuprofene"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tc := range testCases {
		if got := NormalizeName(tc.input); got != tc.expected {
			t.Errorf("NormalizeName(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"Paracétamol", "Kardégic 75", "co-amoxiclav", "déjà normalisé"}
	for _, input := range inputs {
		once := NormalizeName(input)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestCanonicalizeDefaultsRoute(t *testing.T) {
	drug, err := Canonicalize(entities.DrugInput{Name: "Doliprane"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if drug.Route != entities.RoutePO {
		t.Errorf("Expected default route po, got %s", drug.Route)
	}
	if drug.Name != "doliprane" {
		t.Errorf("Expected normalized name doliprane, got %s", drug.Name)
	}
}

func TestCanonicalizeRejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!"} {
		if _, err := Canonicalize(entities.DrugInput{Name: name}); err == nil {
			t.Errorf("Expected error for name %q, got nil", name)
		}
	}
}

func TestCanonicalizeRejectsLongName(t *testing.T) {
	long := strings.Repeat("a", MaxNameLength+1)
	if _, err := Canonicalize(entities.DrugInput{Name: long}); err == nil {
		t.Error("Expected error for over-long name, got nil")
	}

	exact := strings.Repeat("a", MaxNameLength)
	if _, err := Canonicalize(entities.DrugInput{Name: exact}); err != nil {
		t.Errorf("Expected name at the limit to pass, got %v", err)
	}
}

func TestCanonicalizeNormalizesHints(t *testing.T) {
	drug, err := Canonicalize(entities.DrugInput{
		Name:                 "Doliprane",
		ActiveIngredientHint: []string{"Paracétamol", "  ", ""},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(drug.ActiveIngredientHints) != 1 || drug.ActiveIngredientHints[0] != "paracetamol" {
		t.Errorf("Expected hints [paracetamol], got %v", drug.ActiveIngredientHints)
	}
}

func TestPairKeySymmetric(t *testing.T) {
	a := entities.CanonicalDrug{Name: "paracetamol"}
	b := entities.CanonicalDrug{Name: "ibuprofene"}

	if PairKey(a, b) != PairKey(b, a) {
		t.Errorf("PairKey is order-dependent: %q vs %q", PairKey(a, b), PairKey(b, a))
	}
}

func TestPairKeyAccentInsensitive(t *testing.T) {
	d1, _ := Canonicalize(entities.DrugInput{Name: "Paracétamol"})
	d2, _ := Canonicalize(entities.DrugInput{Name: "IBUPROFÈNE"})
	d3, _ := Canonicalize(entities.DrugInput{Name: "paracetamol"})
	d4, _ := Canonicalize(entities.DrugInput{Name: "ibuprofene "})

	if PairKey(d1, d2) != PairKey(d4, d3) {
		t.Errorf("Expected same key for equivalent pairs: %q vs %q", PairKey(d1, d2), PairKey(d4, d3))
	}
}

func TestDrugKeySortsHints(t *testing.T) {
	a := entities.CanonicalDrug{Name: "x", ActiveIngredientHints: []string{"b", "a"}}
	b := entities.CanonicalDrug{Name: "x", ActiveIngredientHints: []string{"a", "b"}}

	if DrugKey(a) != DrugKey(b) {
		t.Errorf("DrugKey depends on hint order: %q vs %q", DrugKey(a), DrugKey(b))
	}
}
