package validation

import (
	"regexp"
	"strings"
)

// =============================================================================
// Visibility Condition Grammar
// =============================================================================

// Conditions are restricted to single field-equality comparisons:
//
//	field == literal
//	field != literal
//
// The literal may be bare or single/double quoted. There is no boolean
// composition and no general expression language; anything else is rejected.
var conditionRegex = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(==|!=)\s*(.+?)\s*$`)

// condition is one parsed field-equality comparison.
type condition struct {
	field   string
	negated bool
	literal string
}

func parseCondition(expr string) (condition, bool) {
	m := conditionRegex.FindStringSubmatch(expr)
	if m == nil {
		return condition{}, false
	}
	return condition{
		field:   m[1],
		negated: m[2] == "!=",
		literal: unquote(m[3]),
	}, true
}

// evaluate compares the condition's literal against the resolved value,
// rendered to its canonical string form. An absent field compares as the
// empty string.
func (c condition) evaluate(value string) bool {
	equal := value == c.literal
	if c.negated {
		return !equal
	}
	return equal
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
			(strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`)) {
			return s[1 : len(s)-1]
		}
	}
	return s
}
