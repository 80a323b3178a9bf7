package command

import (
	"regexp"
	"strings"
)

var (
	argsPattern       = regexp.MustCompile(`\s*(?:"([^"]*)"|'([^']*)'|(\S+))\s*`)
	argsPatternDouble = regexp.MustCompile(`\s*(?:"([^"]*)"|(\S+))\s*`)
	wrappedQuotes     = regexp.MustCompile(`^(?s:"(.*)"|'(.*)')$`)
	wrappedDouble     = regexp.MustCompile(`^(?s:"(.*)")$`)
)

// ParseArgs splits argString into arguments. Quoted text stays together; with
// count > 0 the last slot receives the untouched remainder of the string.
// Empty arguments are dropped.
func ParseArgs(argString string, count int, allowSingleQuotes bool) []string {
	re := argsPatternDouble
	if allowSingleQuotes {
		re = argsPattern
	}

	var result []string
	taken, rest := 0, -1
	for _, loc := range re.FindAllStringSubmatchIndex(argString, -1) {
		if count > 0 && taken == count-1 {
			rest = loc[0]
			break
		}
		taken++
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				result = append(result, argString[loc[g]:loc[g+1]])
				break
			}
		}
	}
	if rest >= 0 {
		result = append(result, stripQuotes(strings.TrimSpace(argString[rest:]), allowSingleQuotes))
	}

	out := result[:0]
	for _, arg := range result {
		if arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

func stripQuotes(s string, allowSingleQuotes bool) string {
	re := wrappedDouble
	if allowSingleQuotes {
		re = wrappedQuotes
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
