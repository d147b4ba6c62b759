package mailer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.German)

	transliterations = strings.NewReplacer(
		"ä", "ae",
		"ö", "oe",
		"ü", "ue",
		"ß", "ss",
	)
)

// Simplify lower-cases s, spells out umlauts and drops everything outside
// [a-z0-9].
func Simplify(s string) string {
	s = transliterations.Replace(lower.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether the local part of a forwarding address refers to
// the member with the given names. Rules are tried in order:
//
//  1. the whole local part equals prename and lastname run together;
//  2. a dotted local part "a.b" where a prefixes the prename and b the lastname;
//  3. an undotted local part equal to the prename.
func Matches(prename, lastname, localPart string) bool {
	first, last := Simplify(prename), Simplify(lastname)
	if first == "" && last == "" {
		return false
	}

	if Simplify(localPart) == first+last {
		return true
	}

	if head, tail, dotted := strings.Cut(localPart, "."); dotted {
		a, b := Simplify(head), Simplify(tail)
		return a != "" && b != "" && strings.HasPrefix(first, a) && strings.HasPrefix(last, b)
	}

	p := Simplify(localPart)
	return p != "" && p == first
}
