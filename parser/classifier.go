package parser

import (
	"strings"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/interfaces"
)

// Compile-time check that the keyword classifier satisfies the contract.
var _ interfaces.Classifier = KeywordClassifier{}

// KeywordClassifier maps free text to action and severity categories using
// French/English keyword stems. Stems are matched on diacritic-folded
// lowercase text, so "Éviter" and "eviter" hit the same rule. The stem lists
// are data, not logic; replace them here without touching the parser or the
// rule engine.
type KeywordClassifier struct{}

// actionStems are checked most restrictive first so ambiguous text skews
// toward safety.
var actionStems = []struct {
	action entities.Action
	stems  []string
}{
	{entities.ActionEviter, []string{"contre", "eviter", "avoid"}},
	{entities.ActionAjusterDose, []string{"ajust", "dose", "posolog"}},
	{entities.ActionSurveiller, []string{"surveil", "monitor", "precaution", "prudence"}},
}

var severityStems = []struct {
	severity entities.Severity
	stems    []string
}{
	{entities.SeverityContreIndiquee, []string{"contre", "interdit"}},
	{entities.SeverityMajeure, []string{"majeur", "severe", "grave"}},
	{entities.SeverityModeree, []string{"moder"}},
	{entities.SeverityMineure, []string{"mineur"}},
}

// ClassifyAction scans folded text for action stems in priority order and
// returns OK when nothing matches.
func (KeywordClassifier) ClassifyAction(text string) entities.Action {
	folded := canonical.NormalizeName(text)
	for _, group := range actionStems {
		if containsAny(folded, group.stems) {
			return group.action
		}
	}
	return entities.ActionOK
}

// ClassifySeverity scans folded text for severity stems in priority order.
// The boolean is false when no stem matched.
func (KeywordClassifier) ClassifySeverity(text string) (entities.Severity, bool) {
	folded := canonical.NormalizeName(text)
	for _, group := range severityStems {
		if containsAny(folded, group.stems) {
			return group.severity, true
		}
	}
	return entities.SeverityAucune, false
}

func containsAny(text string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(text, stem) {
			return true
		}
	}
	return false
}
