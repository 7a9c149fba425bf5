package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName clé de comparaison d'un nom de produit ou de recette:
// sans accents, casse repliée, espaces compactés. "Pain  Complet" == "pain complet".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(strings.Join(strings.Fields(stripped), " "))
}

// CleanName nom affichable: espaces compactés, casse conservée.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
