package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/patel5d2/labctl/internal/core/domain"
	"github.com/patel5d2/labctl/internal/core/secrets"
)

// =============================================================================
// Resolved Field Types
// =============================================================================

// ValueSource records where a resolved value came from.
type ValueSource string

const (
	SourceUser      ValueSource = "user"
	SourceProfile   ValueSource = "profile"
	SourceDefault   ValueSource = "default"
	SourceGenerated ValueSource = "generated"
)

// ResolvedField is a field key bound to its final validated value for one
// build. Immutable once computed.
type ResolvedField struct {
	Key    string
	Value  any // string, bool, int64 or []string depending on the field kind
	Source ValueSource
	Secret bool
}

// Generated reports whether the value was freshly generated this build.
func (f ResolvedField) Generated() bool {
	return f.Source == SourceGenerated
}

// String renders the value in its canonical string form: booleans as
// "true"/"false", integers in decimal, multiselect values comma-joined.
func (f ResolvedField) String() string {
	switch v := f.Value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// =============================================================================
// Field Resolution
// =============================================================================

// ResolveFields resolves the user's raw field values for one service against
// the template's field schema and the active profile.
//
// Per-field precedence: user value, then profile default, then field default.
// A field with no value fails when required (unless hidden by its visibility
// condition), or is omitted from the result. Password fields with
// generate: true produce a fresh secret when nothing else supplies a value.
func ResolveFields(tmpl *domain.ServiceTemplate, profile string, user map[string]any) (map[string]ResolvedField, error) {
	for key := range user {
		if _, ok := tmpl.Field(key); !ok {
			return nil, newValidationError(tmpl.ID, key,
				"value supplied for a field the template does not declare", ErrUnknownField)
		}
	}

	r := &fieldResolver{
		tmpl:     tmpl,
		profile:  profile,
		user:     user,
		resolved: make(map[string]ResolvedField),
		done:     make(map[string]bool),
		visiting: make(map[string]bool),
	}

	for _, f := range tmpl.Fields {
		if err := r.resolve(f.Key); err != nil {
			return nil, err
		}
	}
	return r.resolved, nil
}

type fieldResolver struct {
	tmpl     *domain.ServiceTemplate
	profile  string
	user     map[string]any
	resolved map[string]ResolvedField
	done     map[string]bool
	visiting map[string]bool
}

func (r *fieldResolver) resolve(key string) error {
	if r.done[key] {
		return nil
	}
	if r.visiting[key] {
		return newValidationError(r.tmpl.ID, key,
			"field visibility depends on itself through other fields", ErrCyclicFieldDependency)
	}
	r.visiting[key] = true
	defer delete(r.visiting, key)

	spec, ok := r.tmpl.Field(key)
	if !ok {
		return newValidationError(r.tmpl.ID, key, "unknown field", ErrUnknownField)
	}

	visible, err := r.visible(spec)
	if err != nil {
		return err
	}
	if !visible {
		// Hidden fields never block validation, regardless of required.
		r.done[key] = true
		return nil
	}

	raw, source, found := r.lookup(spec)
	if !found {
		if spec.Type == domain.FieldPassword && spec.Generate {
			length := spec.Length
			if length == 0 {
				length = secrets.DefaultPasswordLength
			}
			value, err := secrets.Password(length)
			if err != nil {
				return newValidationError(r.tmpl.ID, key, err.Error(), err)
			}
			r.resolved[key] = ResolvedField{Key: key, Value: value, Source: SourceGenerated, Secret: true}
			r.done[key] = true
			return nil
		}
		if spec.Required {
			return newValidationError(r.tmpl.ID, key, "required field has no value", ErrMissingRequiredField)
		}
		r.done[key] = true
		return nil
	}

	value, err := r.validate(spec, raw)
	if err != nil {
		return err
	}
	r.resolved[key] = ResolvedField{Key: key, Value: value, Source: source, Secret: spec.Secret()}
	r.done[key] = true
	return nil
}

// lookup applies the value precedence chain without validating.
func (r *fieldResolver) lookup(spec domain.FieldSpec) (any, ValueSource, bool) {
	if v, ok := r.user[spec.Key]; ok {
		return v, SourceUser, true
	}
	if v, ok := r.tmpl.ProfileDefault(r.profile, spec.Key); ok {
		return v, SourceProfile, true
	}
	if spec.Default != nil {
		return spec.Default, SourceDefault, true
	}
	return nil, "", false
}

// visible evaluates show_if / hidden_if against the resolved values of the
// fields they reference, resolving those fields first. Re-entering a field
// that is already being resolved is a cyclic dependency.
func (r *fieldResolver) visible(spec domain.FieldSpec) (bool, error) {
	if spec.ShowIf != "" {
		match, err := r.evaluate(spec, spec.ShowIf)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	if spec.HiddenIf != "" {
		match, err := r.evaluate(spec, spec.HiddenIf)
		if err != nil {
			return false, err
		}
		if match {
			return false, nil
		}
	}
	return true, nil
}

func (r *fieldResolver) evaluate(spec domain.FieldSpec, expr string) (bool, error) {
	cond, ok := parseCondition(expr)
	if !ok {
		return false, newValidationError(r.tmpl.ID, spec.Key,
			fmt.Sprintf("malformed visibility condition %q", expr), ErrInvalidCondition)
	}
	if err := r.resolve(cond.field); err != nil {
		return false, err
	}
	value := ""
	if rf, ok := r.resolved[cond.field]; ok {
		value = rf.String()
	}
	return cond.evaluate(value), nil
}

// =============================================================================
// Type-Specific Constraint Checks
// =============================================================================

// validate checks raw against the constraints of the field's kind and
// returns the value in its canonical Go type.
func (r *fieldResolver) validate(spec domain.FieldSpec, raw any) (any, error) {
	switch spec.Type {
	case domain.FieldString, domain.FieldPassword, domain.FieldTextarea:
		return r.validateString(spec, raw)
	case domain.FieldBoolean:
		return r.validateBoolean(spec, raw)
	case domain.FieldInteger:
		return r.validateInteger(spec, raw)
	case domain.FieldChoice:
		return r.validateChoice(spec, raw)
	case domain.FieldMultiselect:
		return r.validateMultiselect(spec, raw)
	default:
		// Unreachable for catalogs that passed loading.
		return nil, newValidationError(r.tmpl.ID, spec.Key,
			fmt.Sprintf("unrecognized field type %q", spec.Type), ErrInvalidValue)
	}
}

func (r *fieldResolver) validateString(spec domain.FieldSpec, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, r.invalid(spec, fmt.Sprintf("expected a string, got %T", raw))
	}
	if spec.MinLength != nil && len(s) < *spec.MinLength {
		return nil, r.invalid(spec, fmt.Sprintf("shorter than minimum length %d", *spec.MinLength))
	}
	if spec.MaxLength != nil && len(s) > *spec.MaxLength {
		return nil, r.invalid(spec, fmt.Sprintf("longer than maximum length %d", *spec.MaxLength))
	}
	if spec.ValidateRegex != "" {
		re, err := regexp.Compile(spec.ValidateRegex)
		if err != nil {
			return nil, r.invalid(spec, "invalid validation regex: "+err.Error())
		}
		if !re.MatchString(s) {
			return nil, r.invalid(spec, fmt.Sprintf("value %q does not match %q", s, spec.ValidateRegex))
		}
	}
	return s, nil
}

func (r *fieldResolver) validateBoolean(spec domain.FieldSpec, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, r.invalid(spec, fmt.Sprintf("expected true or false, got %v", raw))
}

func (r *fieldResolver) validateInteger(spec domain.FieldSpec, raw any) (any, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case uint64:
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, r.invalid(spec, fmt.Sprintf("expected an integer, got %q", v))
		}
		n = parsed
	default:
		return nil, r.invalid(spec, fmt.Sprintf("expected an integer, got %T", raw))
	}

	if spec.Min != nil && n < *spec.Min {
		return nil, r.invalid(spec, fmt.Sprintf("%d is below minimum %d", n, *spec.Min))
	}
	if spec.Max != nil && n > *spec.Max {
		return nil, r.invalid(spec, fmt.Sprintf("%d is above maximum %d", n, *spec.Max))
	}
	return n, nil
}

func (r *fieldResolver) validateChoice(spec domain.FieldSpec, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, r.invalid(spec, fmt.Sprintf("expected a string choice, got %T", raw))
	}
	for _, c := range spec.Choices {
		if c == s {
			return s, nil
		}
	}
	return nil, r.invalid(spec, fmt.Sprintf("%q is not one of the declared choices", s))
}

func (r *fieldResolver) validateMultiselect(spec domain.FieldSpec, raw any) (any, error) {
	var selections []string
	switch v := raw.(type) {
	case []string:
		selections = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, r.invalid(spec, fmt.Sprintf("expected string selections, got %T", item))
			}
			selections = append(selections, s)
		}
	default:
		return nil, r.invalid(spec, fmt.Sprintf("expected a list of selections, got %T", raw))
	}

	allowed := make(map[string]bool, len(spec.Choices))
	for _, c := range spec.Choices {
		allowed[c] = true
	}
	for _, s := range selections {
		if !allowed[s] {
			return nil, r.invalid(spec, fmt.Sprintf("%q is not one of the declared choices", s))
		}
	}

	if spec.MinSelections != nil && len(selections) < *spec.MinSelections {
		return nil, r.invalid(spec, fmt.Sprintf("needs at least %d selections", *spec.MinSelections))
	}
	if spec.MaxSelections != nil && len(selections) > *spec.MaxSelections {
		return nil, r.invalid(spec, fmt.Sprintf("allows at most %d selections", *spec.MaxSelections))
	}
	return selections, nil
}

func (r *fieldResolver) invalid(spec domain.FieldSpec, message string) *ValidationError {
	return newValidationError(r.tmpl.ID, spec.Key, message, ErrInvalidValue)
}
