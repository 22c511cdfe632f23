// Package parser turns the upstream model's free-form or JSON-ish text into
// a validated structured result. It never panics and never surfaces a parse
// error to the caller: when both attempts fail upstream, Fallback synthesizes
// a result from the raw text.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/interfaces"
)

const (
	maxBullets    = 8
	maxMonitoring = 8
	// maxFallbackBullets caps how many raw lines the fallback keeps.
	maxFallbackBullets = 5
	maxSummaryLength   = 300
)

// rawResult is the schema the prompt asks the model to emit. Action and
// severity arrive as free strings and are re-normalized through the
// classifier; the model's own phrasing is never used as a category.
type rawResult struct {
	Summary           string   `json:"summary"`
	Bullets           []string `json:"bullets"`
	Action            string   `json:"action"`
	Severity          string   `json:"severity"`
	Mechanism         string   `json:"mechanism"`
	Monitoring        []string `json:"monitoring"`
	PregnancyCategory string   `json:"pregnancy_category"`
}

var (
	fenceRe             = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	singleLetterRe      = regexp.MustCompile(`^[A-DXa-dx]$`)
	pregnancyCategoryRe = regexp.MustCompile(`(?i)cat[ée]gorie\s+([a-dx])\b`)
)

// Parse attempts to decode the model text into a ModelResult. Strategy, in
// order: strip markdown code fences, direct JSON parse, then the substring
// between the first "{" and last "}". Returns nil when no strategy yields a
// result with a non-empty summary and 1-8 non-empty bullets; the caller then
// retries with the strict prompt or falls back.
func Parse(text string, c interfaces.Classifier) *entities.ModelResult {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil
	}

	raw := decode(cleaned)
	if raw == nil {
		if sub := braceSubstring(cleaned); sub != "" {
			raw = decode(sub)
		}
	}
	if raw == nil {
		return nil
	}

	return build(raw, text, c)
}

func decode(text string) *rawResult {
	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return &raw
}

// braceSubstring locates the outermost {...} span in prose-wrapped output.
func braceSubstring(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func build(raw *rawResult, original string, c interfaces.Classifier) *entities.ModelResult {
	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		return nil
	}

	bullets := cleanLines(raw.Bullets, maxBullets)
	if len(bullets) == 0 {
		return nil
	}

	// Keyword normalization applies whether or not the model supplied a
	// category; when it did, its own string is the classified text.
	combined := summary + "\n" + strings.Join(bullets, "\n")

	actionSource := strings.TrimSpace(raw.Action)
	if actionSource == "" {
		actionSource = combined
	}
	action := c.ClassifyAction(actionSource)

	severitySource := strings.TrimSpace(raw.Severity)
	if severitySource == "" {
		severitySource = combined
	}
	severity, found := c.ClassifySeverity(severitySource)
	if !found {
		severity = action.ImpliedSeverity()
	}

	return &entities.ModelResult{
		Summary:           summary,
		Bullets:           bullets,
		Action:            action,
		Severity:          severity,
		Mechanism:         strings.TrimSpace(raw.Mechanism),
		Monitoring:        cleanLines(raw.Monitoring, maxMonitoring),
		PregnancyCategory: normalizePregnancy(raw.PregnancyCategory, original),
	}
}

// normalizePregnancy accepts a single letter A-D/X case-insensitively, or
// "inconnue" when an unknown stem is present. When the field is absent the
// surrounding text is scanned for a "catégorie <lettre>" mention.
func normalizePregnancy(field, text string) string {
	field = strings.TrimSpace(field)
	if singleLetterRe.MatchString(field) {
		return strings.ToUpper(field)
	}
	lower := strings.ToLower(field)
	if strings.Contains(lower, "inconnu") || strings.Contains(lower, "unknown") {
		return "inconnue"
	}
	if field == "" {
		if m := pregnancyCategoryRe.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// Fallback synthesizes a ModelResult from raw text when both parse attempts
// failed: up to five non-empty lines become bullets, action and severity are
// keyword-derived from the full text, and the raw text is preserved for
// manual review. It never returns an empty result.
func Fallback(text string, c interfaces.Classifier) entities.ModelResult {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		bullets = append(bullets, line)
		if len(bullets) == maxFallbackBullets {
			break
		}
	}

	summary := "Réponse du modèle non structurée, présentée telle quelle."
	if len(bullets) > 0 {
		summary = truncate(bullets[0], maxSummaryLength)
	} else {
		bullets = []string{"Le modèle n'a renvoyé aucun contenu exploitable."}
	}

	action := c.ClassifyAction(text)
	severity, found := c.ClassifySeverity(text)
	if !found {
		severity = action.ImpliedSeverity()
	}

	return entities.ModelResult{
		Summary:  summary,
		Bullets:  bullets,
		Action:   action,
		Severity: severity,
		RawText:  text,
	}
}

func cleanLines(lines []string, limit int) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
