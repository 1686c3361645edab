// Package domain contains the core service-template types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ID validation errors
	ErrIDRequired      = errors.New("service id is required")
	ErrIDInvalidFormat = errors.New("service id must be lowercase alphanumeric with underscores, starting with a letter")

	// Field validation errors
	ErrFieldKeyRequired      = errors.New("field key is required")
	ErrFieldKeyInvalidFormat = errors.New("field key must be alphanumeric with underscores, starting with a letter")
	ErrFieldKeyDuplicate     = errors.New("duplicate field key")
	ErrFieldInvalidType      = errors.New("invalid field type")
	ErrFieldChoicesRequired  = errors.New("choices required for choice and multiselect fields")
	ErrFieldInvalidRegex     = errors.New("invalid validation regex")

	// Compose fragment validation errors
	ErrImageRequired      = errors.New("compose image is required")
	ErrEnvKeyInvalid      = errors.New("environment variable key must be uppercase alphanumeric with underscores")
	ErrEnvSourceAmbiguous = errors.New("environment entry must declare exactly one value source")

	// Context validation errors
	ErrDomainInvalid = errors.New("invalid domain name")
	ErrEmailInvalid  = errors.New("invalid email address")
)

// =============================================================================
// Field Types
// =============================================================================

// FieldType identifies the kind of a configuration field.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldPassword    FieldType = "password"
	FieldBoolean     FieldType = "boolean"
	FieldInteger     FieldType = "integer"
	FieldChoice      FieldType = "choice"
	FieldMultiselect FieldType = "multiselect"
	FieldTextarea    FieldType = "textarea"
)

// IsValid checks if the field type is one of the recognized kinds.
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldString, FieldPassword, FieldBoolean, FieldInteger,
		FieldChoice, FieldMultiselect, FieldTextarea:
		return true
	default:
		return false
	}
}

// =============================================================================
// Maturity
// =============================================================================

// Maturity is the stability grade of a service template.
type Maturity string

const (
	MaturityAlpha  Maturity = "alpha"
	MaturityBeta   Maturity = "beta"
	MaturityStable Maturity = "stable"
)

// IsValid checks if the maturity level is recognized.
func (m Maturity) IsValid() bool {
	switch m {
	case MaturityAlpha, MaturityBeta, MaturityStable:
		return true
	default:
		return false
	}
}

// AtLeast reports whether m meets the minimum maturity level min.
func (m Maturity) AtLeast(min Maturity) bool {
	return m.rank() >= min.rank()
}

func (m Maturity) rank() int {
	switch m {
	case MaturityBeta:
		return 1
	case MaturityStable:
		return 2
	default:
		return 0
	}
}

// =============================================================================
// FieldSpec
// =============================================================================

// FieldSpec describes one configurable field of a service template.
//
// The constraint attributes are kind-specific: min_length/max_length and
// validate_regex apply to string-like kinds, min/max to integer, choices and
// selection bounds to choice/multiselect, generate/length to password. The
// validator switches exhaustively on Type and only consults the attributes
// belonging to that kind.
type FieldSpec struct {
	Key         string    `yaml:"key"`
	Label       string    `yaml:"label,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Type        FieldType `yaml:"type"`
	Default     any       `yaml:"default,omitempty"`
	Required    bool      `yaml:"required,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty"`

	// Conditional visibility expressions (field == literal grammar).
	ShowIf   string `yaml:"show_if,omitempty"`
	HiddenIf string `yaml:"hidden_if,omitempty"`

	// string, password, textarea
	ValidateRegex string `yaml:"validate_regex,omitempty"`
	MinLength     *int   `yaml:"min_length,omitempty"`
	MaxLength     *int   `yaml:"max_length,omitempty"`

	// integer
	Min *int64 `yaml:"min,omitempty"`
	Max *int64 `yaml:"max,omitempty"`

	// choice, multiselect
	Choices       []string `yaml:"choices,omitempty"`
	MinSelections *int     `yaml:"min_selections,omitempty"`
	MaxSelections *int     `yaml:"max_selections,omitempty"`

	// password
	Generate bool `yaml:"generate,omitempty"`
	Length   int  `yaml:"length,omitempty"`
	Mask     bool `yaml:"mask,omitempty"`
}

// Secret reports whether the field's resolved value is sensitive.
func (f FieldSpec) Secret() bool {
	return f.Type == FieldPassword
}

// =============================================================================
// Compose Fragment
// =============================================================================

// EnvSource declares how one environment variable of a container gets its
// value. Exactly one of FromField, FromService, Value, Template or Generate
// must be set.
type EnvSource struct {
	Key         string `yaml:"key"`
	FromField   string `yaml:"from_field,omitempty"`
	FromService string `yaml:"from_service,omitempty"`
	Value       string `yaml:"value,omitempty"`
	Template    string `yaml:"template,omitempty"`
	Generate    string `yaml:"generate,omitempty"`
}

// SourceCount returns the number of value sources declared on the entry.
func (e EnvSource) SourceCount() int {
	n := 0
	for _, s := range []string{e.FromField, e.FromService, e.Value, e.Template, e.Generate} {
		if s != "" {
			n++
		}
	}
	return n
}

// Healthcheck is the container health probe declaration.
type Healthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// WebExposure marks a service as routable through the reverse proxy.
type WebExposure struct {
	Subdomain string `yaml:"subdomain"`
	Port      int    `yaml:"port"`
}

// ComposeFragment is the partial container declaration carried by a template.
// Field references and placeholders inside it are substituted at synthesis
// time.
type ComposeFragment struct {
	Image         string            `yaml:"image"`
	ContainerName string            `yaml:"container_name,omitempty"`
	Restart       string            `yaml:"restart,omitempty"`
	Command       []string          `yaml:"command,omitempty"`
	Entrypoint    []string          `yaml:"entrypoint,omitempty"`
	Ports         []string          `yaml:"ports,omitempty"`
	Volumes       []string          `yaml:"volumes,omitempty"`
	Networks      []string          `yaml:"networks,omitempty"`
	Labels        []string          `yaml:"labels,omitempty"`
	Environment   []EnvSource       `yaml:"environment,omitempty"`
	Healthcheck   *Healthcheck      `yaml:"healthcheck,omitempty"`
	CapAdd        []string          `yaml:"cap_add,omitempty"`
	Devices       []string          `yaml:"devices,omitempty"`
	Web           *WebExposure      `yaml:"web,omitempty"`
	Outputs       map[string]string `yaml:"outputs,omitempty"`
}

// =============================================================================
// ServiceTemplate
// =============================================================================

// ServiceTemplate is one entry in the service catalog.
type ServiceTemplate struct {
	ID                   string                    `yaml:"id"`
	Name                 string                    `yaml:"name"`
	Category             string                    `yaml:"category"`
	Description          string                    `yaml:"description,omitempty"`
	Maturity             Maturity                  `yaml:"maturity,omitempty"`
	RequiredCapabilities []string                  `yaml:"required_capabilities,omitempty"`
	Dependencies         []string                  `yaml:"dependencies,omitempty"`
	ConflictsWith        []string                  `yaml:"conflicts_with,omitempty"`
	Fields               []FieldSpec               `yaml:"fields,omitempty"`
	Compose              ComposeFragment           `yaml:"compose"`
	ProfileDefaults      map[string]map[string]any `yaml:"profile_defaults,omitempty"`
}

// Field returns the field spec with the given key, if declared.
func (t *ServiceTemplate) Field(key string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldKeys returns the declared field keys in declaration order.
func (t *ServiceTemplate) FieldKeys() []string {
	keys := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// ProfileDefault returns the profile-level default for a field key, if any.
func (t *ServiceTemplate) ProfileDefault(profile, key string) (any, bool) {
	overrides, ok := t.ProfileDefaults[profile]
	if !ok {
		return nil, false
	}
	v, ok := overrides[key]
	return v, ok
}

// PublishesOutput reports whether the template publishes the named
// cross-service output key.
func (t *ServiceTemplate) PublishesOutput(key string) bool {
	_, ok := t.Compose.Outputs[key]
	return ok
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

var (
	idRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	fieldKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	envKeyRegex   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	domainRegex   = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateID validates a service identifier.
func ValidateID(id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if !idRegex.MatchString(id) {
		return ErrIDInvalidFormat
	}
	return nil
}

// ValidateFieldKey validates a field key.
func ValidateFieldKey(key string) error {
	if key == "" {
		return ErrFieldKeyRequired
	}
	if !fieldKeyRegex.MatchString(key) {
		return ErrFieldKeyInvalidFormat
	}
	return nil
}

// ValidateEnvKey validates an environment variable name.
func ValidateEnvKey(key string) error {
	if !envKeyRegex.MatchString(key) {
		return ErrEnvKeyInvalid
	}
	return nil
}

// ValidateDomainName validates a DNS domain name.
func ValidateDomainName(domain string) error {
	if domain == "" || len(domain) > 253 || !domainRegex.MatchString(domain) {
		return ErrDomainInvalid
	}
	return nil
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateFields validates a template's field declarations.
// Returns all validation errors found.
func ValidateFields(fields []FieldSpec) []error {
	var errs []error
	seen := make(map[string]bool)

	for _, f := range fields {
		if err := ValidateFieldKey(f.Key); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[f.Key] {
			errs = append(errs, ErrFieldKeyDuplicate)
			continue
		}
		seen[f.Key] = true

		if !f.Type.IsValid() {
			errs = append(errs, ErrFieldInvalidType)
			continue
		}

		if f.Type == FieldChoice || f.Type == FieldMultiselect {
			// An empty choices list is only tolerable when the field can
			// legitimately resolve to nothing.
			if len(f.Choices) == 0 && f.Required && f.Default == nil {
				errs = append(errs, ErrFieldChoicesRequired)
			}
		}

		if f.ValidateRegex != "" {
			if _, err := regexp.Compile(f.ValidateRegex); err != nil {
				errs = append(errs, ErrFieldInvalidRegex)
			}
		}
	}

	return errs
}

// ValidateFragment validates a template's compose fragment.
// Returns all validation errors found.
func ValidateFragment(frag ComposeFragment) []error {
	var errs []error

	if frag.Image == "" {
		errs = append(errs, ErrImageRequired)
	}

	for _, env := range frag.Environment {
		if err := ValidateEnvKey(env.Key); err != nil {
			errs = append(errs, err)
		}
		if env.SourceCount() != 1 {
			errs = append(errs, ErrEnvSourceAmbiguous)
		}
	}

	return errs
}
