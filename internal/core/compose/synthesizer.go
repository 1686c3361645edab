package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patel5d2/labctl/internal/core/catalog"
	"github.com/patel5d2/labctl/internal/core/domain"
	"github.com/patel5d2/labctl/internal/core/resolver"
	"github.com/patel5d2/labctl/internal/core/secrets"
	"github.com/patel5d2/labctl/internal/core/traefik"
	"github.com/patel5d2/labctl/internal/core/validation"
)

// =============================================================================
// Synthesis Parameters
// =============================================================================

// Params carries everything synthesis needs: the catalog, the resolved
// service order, the validated field values per service, and the build-wide
// context values substituted into placeholders.
type Params struct {
	Catalog    *catalog.Catalog
	Resolution *resolver.Result

	// Fields maps service id to its resolved field values.
	Fields map[string]map[string]validation.ResolvedField

	Profile string
	Domain  string
	Email   string

	// ProxyNetwork is the shared network every routed container joins.
	// Defaults to "traefik".
	ProxyNetwork string

	// ProxyServiceID names the catalog entry acting as the reverse proxy.
	// When that service is part of the resolution it additionally carries
	// the global proxy labels. Defaults to "traefik".
	ProxyServiceID string

	// DashboardUsers is the htpasswd content protecting the proxy
	// dashboard. Empty disables the dashboard router.
	DashboardUsers string
}

func (p *Params) proxyNetwork() string {
	if p.ProxyNetwork == "" {
		return "traefik"
	}
	return p.ProxyNetwork
}

func (p *Params) proxyServiceID() string {
	if p.ProxyServiceID == "" {
		return "traefik"
	}
	return p.ProxyServiceID
}

// =============================================================================
// Synthesis Output
// =============================================================================

// envRef locates one generated environment value so secret preservation can
// rewrite it consistently in both artifacts.
type envRef struct {
	service string
	key     string
}

// Output is the complete synthesis result: the merged document plus the
// environment mapping destined for the env file. Every generated or
// field-derived value appears identically in both, so the document remains
// self-contained while the env file stays authoritative for secrets.
type Output struct {
	Document *Document

	// Env is the flat mapping written to the environment file.
	Env map[string]string

	// generated tracks which env entries hold freshly generated secrets.
	generated []envRef
}

// GeneratedKeys returns the env keys whose values were generated this build,
// sorted for stable display.
func (o *Output) GeneratedKeys() []string {
	keys := make([]string, 0, len(o.generated))
	for _, ref := range o.generated {
		keys = append(keys, ref.key)
	}
	sort.Strings(keys)
	return keys
}

// PreserveSecrets replaces this build's generated values with the values
// from a previous build's environment mapping, keyed by env name. The env
// mapping and every document environment entry carrying the fresh value are
// rewritten, including entries that embed it inside a larger string (a DSN
// built from another service's generated password), so the two artifacts
// never disagree about a secret.
func (o *Output) PreserveSecrets(existing map[string]string) int {
	preserved := 0
	for _, ref := range o.generated {
		old, ok := existing[ref.key]
		if !ok || old == "" {
			continue
		}
		fresh := o.Env[ref.key]
		if fresh == "" || old == fresh {
			continue
		}
		for key, value := range o.Env {
			if strings.Contains(value, fresh) {
				o.Env[key] = strings.ReplaceAll(value, fresh, old)
			}
		}
		for _, svc := range o.Document.Services {
			for key, value := range svc.Environment {
				if strings.Contains(value, fresh) {
					svc.Environment[key] = strings.ReplaceAll(value, fresh, old)
				}
			}
		}
		preserved++
	}
	return preserved
}

// AddGeneratedEnv mirrors a secret produced outside synthesis into the env
// mapping and registers it for preservation on rebuilds.
func (o *Output) AddGeneratedEnv(key, value string) {
	o.Env[key] = value
	o.generated = append(o.generated, envRef{key: key})
}

// =============================================================================
// Synthesizer
// =============================================================================

// Synthesize merges the resolved services into a single Compose document and
// its companion environment mapping. Services are processed in deployment
// order; any failure aborts the whole synthesis.
func Synthesize(params Params) (*Output, error) {
	out := &Output{
		Document: &Document{
			Services: make(map[string]Service),
			Networks: make(map[string]Network),
			Volumes:  make(map[string]Volume),
		},
		Env: make(map[string]string),
	}

	for _, id := range params.Resolution.IDs() {
		tmpl, ok := params.Catalog.Get(id)
		if !ok {
			return nil, newSynthesisError(id, "", "service missing from catalog", ErrUnknownServiceOutput)
		}
		svc, err := synthesizeService(params, tmpl, out)
		if err != nil {
			return nil, err
		}
		out.Document.Services[id] = svc
	}

	return out, nil
}

func synthesizeService(params Params, tmpl *domain.ServiceTemplate, out *Output) (Service, error) {
	ctx := interpContext{
		serviceID: tmpl.ID,
		domain:    params.Domain,
		profile:   params.Profile,
		email:     params.Email,
		fields:    params.Fields[tmpl.ID],
	}
	frag := tmpl.Compose

	svc := Service{
		Restart: frag.Restart,
		CapAdd:  append([]string(nil), frag.CapAdd...),
		Devices: append([]string(nil), frag.Devices...),
	}

	var err error
	if svc.Image, err = ctx.interpolate(frag.Image); err != nil {
		return Service{}, err
	}
	if frag.ContainerName != "" {
		if svc.ContainerName, err = ctx.interpolate(frag.ContainerName); err != nil {
			return Service{}, err
		}
	}
	if svc.Command, err = ctx.interpolateAll(frag.Command); err != nil {
		return Service{}, err
	}
	if svc.Entrypoint, err = ctx.interpolateAll(frag.Entrypoint); err != nil {
		return Service{}, err
	}
	if svc.Ports, err = ctx.interpolateAll(frag.Ports); err != nil {
		return Service{}, err
	}
	if svc.Labels, err = ctx.interpolateAll(frag.Labels); err != nil {
		return Service{}, err
	}

	if svc.Volumes, err = synthesizeVolumes(ctx, frag.Volumes, out.Document); err != nil {
		return Service{}, err
	}
	svc.Networks = synthesizeNetworks(params, frag.Networks, out.Document)

	if svc.Environment, err = synthesizeEnvironment(params, tmpl, ctx, out); err != nil {
		return Service{}, err
	}

	svc.DependsOn = synthesizeDependsOn(params, tmpl)

	if frag.Healthcheck != nil {
		hc, err := synthesizeHealthcheck(ctx, frag.Healthcheck)
		if err != nil {
			return Service{}, err
		}
		svc.Healthcheck = hc
	}

	routing, err := routingLabels(params, tmpl, ctx)
	if err != nil {
		return Service{}, err
	}
	svc.Labels = append(svc.Labels, routing...)

	return svc, nil
}

// =============================================================================
// Environment Synthesis
// =============================================================================

// synthesizeEnvironment materializes the template's environment entries.
// Values derived from this build's own inputs (literals, field values,
// templates, generated secrets) are mirrored into the env file; values read
// from another service's outputs are not, since the publishing service
// already owns them.
func synthesizeEnvironment(params Params, tmpl *domain.ServiceTemplate, ctx interpContext, out *Output) (map[string]string, error) {
	if len(tmpl.Compose.Environment) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(tmpl.Compose.Environment))

	setMirrored := func(key, value string) error {
		if prev, ok := out.Env[key]; ok && prev != value {
			return newSynthesisError(tmpl.ID, key,
				fmt.Sprintf("environment key already holds a different value (%q vs %q)", prev, value),
				ErrDuplicateEnvKey)
		}
		env[key] = value
		out.Env[key] = value
		return nil
	}

	for _, src := range tmpl.Compose.Environment {
		switch {
		case src.Value != "":
			v, err := ctx.interpolate(src.Value)
			if err != nil {
				return nil, err
			}
			if err := setMirrored(src.Key, v); err != nil {
				return nil, err
			}

		case src.FromField != "":
			rf, ok := ctx.fields[src.FromField]
			if !ok {
				// Hidden optional field with no value: the entry is simply
				// absent from the container.
				continue
			}
			if err := setMirrored(src.Key, rf.String()); err != nil {
				return nil, err
			}
			// A generated field value is a secret of this build; record it
			// so a rebuild can carry the previous value forward.
			if rf.Generated() {
				out.generated = append(out.generated, envRef{service: tmpl.ID, key: src.Key})
			}

		case src.FromService != "":
			v, err := resolveServiceOutput(params, tmpl, src)
			if err != nil {
				return nil, err
			}
			if prev, ok := env[src.Key]; ok && prev != v {
				return nil, newSynthesisError(tmpl.ID, src.Key,
					"environment key declared twice with different values", ErrDuplicateEnvKey)
			}
			env[src.Key] = v

		case src.Template != "":
			v, err := ctx.interpolate(src.Template)
			if err != nil {
				return nil, err
			}
			if err := setMirrored(src.Key, v); err != nil {
				return nil, err
			}

		case src.Generate != "":
			v, err := secrets.Generate(src.Generate)
			if err != nil {
				return nil, newSynthesisError(tmpl.ID, src.Key,
					fmt.Sprintf("cannot generate value: %v", err), ErrUnknownGenerator)
			}
			if err := setMirrored(src.Key, v); err != nil {
				return nil, err
			}
			out.generated = append(out.generated, envRef{service: tmpl.ID, key: src.Key})
		}
	}

	return env, nil
}

// resolveServiceOutput evaluates a from_service reference of the form
// "service.output_key" against the publishing template's outputs. The value
// template is interpolated in the publisher's context, so ${from_field:x}
// inside it reads the publisher's fields.
func resolveServiceOutput(params Params, tmpl *domain.ServiceTemplate, src domain.EnvSource) (string, error) {
	service, key, ok := strings.Cut(src.FromService, ".")
	if !ok {
		return "", newSynthesisError(tmpl.ID, src.Key,
			fmt.Sprintf("from_service %q must be service.output_key", src.FromService),
			ErrUnknownServiceOutput)
	}
	if !params.Resolution.Contains(service) {
		return "", newSynthesisError(tmpl.ID, src.Key,
			fmt.Sprintf("service %q is not part of this build", service), ErrUnknownServiceOutput)
	}
	publisher, ok := params.Catalog.Get(service)
	if !ok || !publisher.PublishesOutput(key) {
		return "", newSynthesisError(tmpl.ID, src.Key,
			fmt.Sprintf("service %q does not publish output %q", service, key),
			ErrUnknownServiceOutput)
	}
	pubCtx := interpContext{
		serviceID: publisher.ID,
		domain:    params.Domain,
		profile:   params.Profile,
		email:     params.Email,
		fields:    params.Fields[publisher.ID],
	}
	return pubCtx.interpolate(publisher.Compose.Outputs[key])
}

// =============================================================================
// Volume and Network Synthesis
// =============================================================================

// synthesizeVolumes interpolates mount specs and declares each named volume
// source at the document level exactly once. A source is named when it is
// not an absolute, relative or home-anchored path.
func synthesizeVolumes(ctx interpContext, mounts []string, doc *Document) ([]string, error) {
	out, err := ctx.interpolateAll(mounts)
	if err != nil {
		return nil, err
	}
	for _, mount := range out {
		source, _, ok := strings.Cut(mount, ":")
		if !ok || source == "" {
			continue
		}
		if strings.HasPrefix(source, "/") || strings.HasPrefix(source, "./") ||
			strings.HasPrefix(source, "../") || strings.HasPrefix(source, "~") {
			continue
		}
		if _, exists := doc.Volumes[source]; !exists {
			doc.Volumes[source] = Volume{}
		}
	}
	return out, nil
}

// synthesizeNetworks attaches the service to its declared networks, falling
// back to the shared proxy network, and declares each at the document level
// exactly once.
func synthesizeNetworks(params Params, networks []string, doc *Document) []string {
	if len(networks) == 0 {
		networks = []string{params.proxyNetwork()}
	}
	out := append([]string(nil), networks...)
	for _, name := range out {
		if _, exists := doc.Networks[name]; !exists {
			doc.Networks[name] = Network{Driver: "bridge"}
		}
	}
	return out
}

// =============================================================================
// Startup Ordering and Health
// =============================================================================

// synthesizeDependsOn converts catalog dependency edges into depends_on
// entries. A dependency carrying a healthcheck is waited on until healthy;
// otherwise started is the strongest guarantee available.
func synthesizeDependsOn(params Params, tmpl *domain.ServiceTemplate) map[string]DependsOn {
	if len(tmpl.Dependencies) == 0 {
		return nil
	}
	deps := make(map[string]DependsOn, len(tmpl.Dependencies))
	for _, dep := range tmpl.Dependencies {
		condition := ConditionStarted
		if depTmpl, ok := params.Catalog.Get(dep); ok && depTmpl.Compose.Healthcheck != nil {
			condition = ConditionHealthy
		}
		deps[dep] = DependsOn{Condition: condition}
	}
	return deps
}

func synthesizeHealthcheck(ctx interpContext, hc *domain.Healthcheck) (*Healthcheck, error) {
	test, err := ctx.interpolateAll(hc.Test)
	if err != nil {
		return nil, err
	}
	return &Healthcheck{
		Test:        test,
		Interval:    hc.Interval,
		Timeout:     hc.Timeout,
		Retries:     hc.Retries,
		StartPeriod: hc.StartPeriod,
	}, nil
}

// =============================================================================
// Proxy Routing
// =============================================================================

// routingLabels derives the reverse-proxy labels for the service: a routed
// subdomain for templates declaring web exposure, plus the global proxy
// label block when the service is the proxy itself.
func routingLabels(params Params, tmpl *domain.ServiceTemplate, ctx interpContext) ([]string, error) {
	var labels []string
	if web := tmpl.Compose.Web; web != nil {
		subdomain, err := ctx.interpolate(web.Subdomain)
		if err != nil {
			return nil, err
		}
		labels = append(labels, traefik.RouteLabels(traefik.RouteParams{
			Name:      tmpl.ID,
			Subdomain: subdomain,
			Domain:    params.Domain,
			Port:      web.Port,
		})...)
	}
	if tmpl.ID == params.proxyServiceID() {
		labels = append(labels, traefik.ProxyLabels(params.Domain, params.DashboardUsers)...)
	}
	return labels, nil
}
