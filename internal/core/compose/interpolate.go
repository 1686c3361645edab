package compose

import (
	"fmt"
	"regexp"

	"github.com/patel5d2/labctl/internal/core/validation"
)

// =============================================================================
// Placeholder Interpolation
// =============================================================================

// placeholderRegex matches ${NAME} and ${from_field:key} placeholders.
var placeholderRegex = regexp.MustCompile(`\$\{(from_field:)?([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpContext is the substitution scope of one service: the build-wide
// domain/profile values plus the service's own resolved fields.
type interpContext struct {
	serviceID string
	domain    string
	profile   string
	email     string
	fields    map[string]validation.ResolvedField
}

// interpolate substitutes every placeholder in s. Unlike shell-style
// expansion there is no silent passthrough: a placeholder that cannot be
// resolved fails the build.
func (c interpContext) interpolate(s string) (string, error) {
	var firstErr error
	out := placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		m := placeholderRegex.FindStringSubmatch(match)
		fromField, name := m[1] != "", m[2]

		if fromField {
			if rf, ok := c.fields[name]; ok {
				return rf.String()
			}
			if firstErr == nil {
				firstErr = newSynthesisError(c.serviceID, name,
					fmt.Sprintf("placeholder %s references an unresolved field", match),
					ErrUnresolvedPlaceholder)
			}
			return match
		}

		switch name {
		case "DOMAIN":
			return c.domain
		case "PROFILE":
			return c.profile
		case "EMAIL":
			return c.email
		case "SERVICE_ID":
			return c.serviceID
		}
		if firstErr == nil {
			firstErr = newSynthesisError(c.serviceID, name,
				fmt.Sprintf("unknown placeholder %s", match), ErrUnresolvedPlaceholder)
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// interpolateAll maps interpolate over a string slice.
func (c interpContext) interpolateAll(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		v, err := c.interpolate(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
