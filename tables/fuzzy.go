package tables

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// smash turns anything that is awkward to type on a command line (apostrophes, colons, spaces) into '_'
func smash(in string) string {
	var sb strings.Builder
	for _, c := range strings.ToUpper(in) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			sb.WriteRune(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// typo_budget is how many edits a name of this length may be away from what was typed
func typo_budget(input string) int {
	switch n := len(input); {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	}
	return 3
}

// string matching functions, in strictly increasing order of desperation
var fuzzy = []func(input string, candidate string) bool{
	func(i string, c string) bool { return i == c },
	func(i string, c string) bool { return strings.EqualFold(i, c) },
	func(i string, c string) bool { return smash(i) == smash(c) },
	func(i string, c string) bool { return strings.HasPrefix(smash(c), smash(i)) },
	func(i string, c string) bool { return strings.Contains(smash(c), smash(i)) },
}

// Fuzzy_lookup finds the key whose name best matches to.
// Several keys sharing one name (the same article in two categories, say) resolve to the lowest key.
// When nothing else matches, names within a few typos of to are tried.
func Fuzzy_lookup[K cmp.Ordered](names map[K]string, to string, what string) (K, string, error) {
	var K0 K

	pick := func(matches []K) (K, string, error) {
		slices.Sort(matches)
		distinct := []string{}
		for _, k := range matches {
			if !slices.Contains(distinct, names[k]) {
				distinct = append(distinct, names[k])
			}
		}
		if len(distinct) > 1 {
			slices.Sort(distinct)
			return K0, "", fmt.Errorf("Ambiguous argument: %v could be anything from {%v}", to, strings.Join(distinct, ", "))
		}
		return matches[0], names[matches[0]], nil
	}

	for _, match := range fuzzy {
		matches := []K{}
		for k, v := range names {
			if match(to, v) {
				matches = append(matches, k)
			}
		}
		if len(matches) > 0 {
			return pick(matches)
		}
	}

	best := typo_budget(to) + 1
	matches := []K{}
	for k, v := range names {
		d := levenshtein.ComputeDistance(smash(to), smash(v))
		if d < best {
			best = d
			matches = matches[:0]
		}
		if d == best {
			matches = append(matches, k)
		}
	}
	if len(matches) > 0 {
		return pick(matches)
	}

	return K0, "", fmt.Errorf("%v could not be matched to a valid value for %v", to, what)
}
