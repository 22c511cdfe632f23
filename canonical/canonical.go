// Package canonical normalizes raw drug input into a stable internal shape
// and derives order-independent cache keys for drug pairs. Normalization is
// pure: two inputs differing only in case, accents or whitespace canonicalize
// identically.
package canonical

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mokokaf/interactions-api/entities"
)

// MaxNameLength is the maximum accepted drug name length after normalization.
const MaxNameLength = 120

const (
	fieldSeparator = "|"
	pairSeparator  = "||"
)

// foldAccents decomposes to NFD and removes combining marks, so "é" becomes
// "e" and "ï" becomes "i".
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, strips diacritics, drops characters outside
// [a-z0-9 space hyphen] and collapses whitespace.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Canonicalize converts a raw drug input into its canonical form. It fails
// when the name is empty after normalization or exceeds MaxNameLength. The
// route defaults to "po" when absent. Ingredient hints are normalized
// per-item and empty entries dropped.
func Canonicalize(in entities.DrugInput) (entities.CanonicalDrug, error) {
	name := NormalizeName(in.Name)
	if name == "" {
		return entities.CanonicalDrug{}, fmt.Errorf("drug name is empty after normalization")
	}
	if len(name) > MaxNameLength {
		return entities.CanonicalDrug{}, fmt.Errorf("drug name exceeds %d characters after normalization", MaxNameLength)
	}

	route := in.Route
	if route == "" {
		route = entities.RoutePO
	}

	var hints []string
	for _, h := range in.ActiveIngredientHint {
		if n := NormalizeName(h); n != "" {
			hints = append(hints, n)
		}
	}

	return entities.CanonicalDrug{
		Name:                  name,
		DoseMg:                in.DoseMg,
		Route:                 route,
		Freq:                  strings.TrimSpace(in.Freq),
		ActiveIngredientHints: hints,
	}, nil
}

// DrugKey concatenates the normalized name with the sorted ingredient hints.
func DrugKey(d entities.CanonicalDrug) string {
	if len(d.ActiveIngredientHints) == 0 {
		return d.Name
	}
	hints := append([]string(nil), d.ActiveIngredientHints...)
	sort.Strings(hints)
	return d.Name + fieldSeparator + strings.Join(hints, fieldSeparator)
}

// PairKey derives the cache key for a drug pair. The per-drug keys are joined
// in sorted order so that checking A against B hits the same entry as B
// against A.
func PairKey(a, b entities.CanonicalDrug) string {
	ka, kb := DrugKey(a), DrugKey(b)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + pairSeparator + kb
}
