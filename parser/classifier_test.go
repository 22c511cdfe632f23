package parser

import (
	"testing"

	"github.com/mokokaf/interactions-api/entities"
)

func TestClassifyAction(t *testing.T) {
	c := KeywordClassifier{}

	testCases := []struct {
		text     string
		expected entities.Action
	}{
		{"association contre-indiquée", entities.ActionEviter},
		{"à ÉVITER absolument", entities.ActionEviter},
		{"avoid concomitant use", entities.ActionEviter},
		{"ajuster la posologie", entities.ActionAjusterDose},
		{"réduire la dose de moitié", entities.ActionAjusterDose},
		{"surveillance clinique recommandée", entities.ActionSurveiller},
		{"monitor renal function", entities.ActionSurveiller},
		{"prudence chez le sujet âgé", entities.ActionSurveiller},
		{"aucun problème connu", entities.ActionOK},
		{"", entities.ActionOK},
	}

	for _, tc := range testCases {
		if got := c.ClassifyAction(tc.text); got != tc.expected {
			t.Errorf("ClassifyAction(%q) = %s, expected %s", tc.text, got, tc.expected)
		}
	}
}

func TestClassifyActionMostRestrictiveWins(t *testing.T) {
	c := KeywordClassifier{}

	// Text mentioning both monitoring and contraindication skews to safety.
	got := c.ClassifyAction("surveiller, voire contre-indiquer selon le terrain")
	if got != entities.ActionEviter {
		t.Errorf("Expected Éviter/Contre-indiqué, got %s", got)
	}
}

func TestClassifySeverity(t *testing.T) {
	c := KeywordClassifier{}

	testCases := []struct {
		text     string
		expected entities.Severity
		found    bool
	}{
		{"contre-indication absolue", entities.SeverityContreIndiquee, true},
		{"strictement interdit", entities.SeverityContreIndiquee, true},
		{"interaction majeure", entities.SeverityMajeure, true},
		{"effet severe", entities.SeverityMajeure, true},
		{"risque grave", entities.SeverityMajeure, true},
		{"interaction modérée", entities.SeverityModeree, true},
		{"interaction mineure", entities.SeverityMineure, true},
		{"rien à signaler", entities.SeverityAucune, false},
	}

	for _, tc := range testCases {
		got, found := c.ClassifySeverity(tc.text)
		if got != tc.expected || found != tc.found {
			t.Errorf("ClassifySeverity(%q) = (%s, %v), expected (%s, %v)",
				tc.text, got, found, tc.expected, tc.found)
		}
	}
}
