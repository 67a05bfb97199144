package archive

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NaturalLess orders strings case-insensitively with digit runs compared by
// numeric value, so "page2" sorts before "page10". Ties fall back to the
// raw strings to keep the order total.
func NaturalLess(a, b string) bool {
	if c := naturalCompare(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ra, _ := utf8.DecodeRuneInString(a)
		rb, _ := utf8.DecodeRuneInString(b)

		if isDigit(ra) && isDigit(rb) {
			da, restA := digitRun(a)
			db, restB := digitRun(b)
			if c := compareNumbers(da, db); c != 0 {
				return c
			}
			a, b = restA, restB
			continue
		}

		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		a, b = a[utf8.RuneLen(ra):], b[utf8.RuneLen(rb):]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// compareNumbers compares decimal digit strings by value without parsing,
// so arbitrarily long runs work.
func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
