package component

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	camelizeRE  = regexp.MustCompile(`-(\w)`)
	hyphenateRE = regexp.MustCompile(`\B([A-Z])`)
)

// Camelize turns kebab-case into camelCase.
func Camelize(s string) string {
	return camelizeRE.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// Hyphenate turns camelCase into kebab-case.
func Hyphenate(s string) string {
	return strings.ToLower(hyphenateRE.ReplaceAllString(s, "-$1"))
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// isReserved reports whether key starts with $ or _.
func isReserved(key string) bool {
	return strings.HasPrefix(key, "$") || strings.HasPrefix(key, "_")
}
