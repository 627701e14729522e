package reactive

import (
	"regexp"
	"strconv"
	"strings"
)

var bailRE = regexp.MustCompile(`[^\w.$]`)

// Getterer is anything a dotted path can be resolved against.
type Getterer interface {
	Get(key string) any
}

// ParsePath compiles a dotted path such as "a.b.c" into a function reading it
// from a root value. It returns nil for paths containing anything other than
// word characters, dots and dollars.
func ParsePath(path string) func(root any) any {
	if bailRE.MatchString(path) {
		return nil
	}
	segments := strings.Split(path, ".")
	return func(root any) any {
		v := root
		for _, seg := range segments {
			if v == nil {
				return nil
			}
			v = segment(v, seg)
		}
		return v
	}
}

func segment(v any, seg string) any {
	switch t := v.(type) {
	case *Array:
		i, err := strconv.Atoi(seg)
		if err != nil {
			if seg == "length" {
				return t.Len()
			}
			return nil
		}
		return t.At(i)
	case Getterer:
		return t.Get(seg)
	case map[string]any:
		return t[seg]
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil
		}
		return t[i]
	}
	return nil
}
