package argument

import (
	"fmt"
	"strings"
)

// MaxDisambiguation is the candidate count from which a disambiguation list is
// replaced by a plain "be more specific" message.
const MaxDisambiguation = 15

// Disambiguation lists candidate names for the author to choose from.
func Disambiguation(names []string, label string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, `"`+strings.ReplaceAll(n, " ", "\u00a0")+`"`)
	}
	return fmt.Sprintf("Multiple %s found, please be more specific: %s", label, strings.Join(quoted, ",   "))
}

// FuzzyFind returns the items whose name contains search, and the subset whose
// name equals it, both case-insensitively.
func FuzzyFind[T any](items []T, name func(T) string, search string) (partial, exact []T) {
	search = strings.ToLower(search)
	for _, it := range items {
		n := strings.ToLower(name(it))
		if !strings.Contains(n, search) {
			continue
		}
		partial = append(partial, it)
		if n == search {
			exact = append(exact, it)
		}
	}
	return partial, exact
}

// Pick applies the disambiguation policy to a FuzzyFind result: a single hit or a
// single exact hit is accepted, otherwise the author is asked to be more specific.
func Pick[T any](partial, exact []T, name func(T) string, label string) (T, Verdict) {
	var zero T
	switch {
	case len(partial) == 0:
		return zero, Verdict{}
	case len(partial) == 1:
		return partial[0], Valid
	case len(exact) == 1:
		return exact[0], Valid
	}
	candidates := partial
	if len(exact) > 0 {
		candidates = exact
	}
	if len(candidates) >= MaxDisambiguation {
		return zero, Invalid("Multiple %s found. Please be more specific.", label)
	}
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, name(c))
	}
	return zero, Verdict{Reason: Disambiguation(names, label)}
}
