package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patel5d2/labctl/internal/core/catalog"
	"github.com/patel5d2/labctl/internal/core/compose"
	"github.com/patel5d2/labctl/internal/core/domain"
	"github.com/patel5d2/labctl/internal/core/resolver"
	"github.com/patel5d2/labctl/internal/core/secrets"
	"github.com/patel5d2/labctl/internal/core/validation"
	"github.com/patel5d2/labctl/internal/shell/artifacts"
)

var buildCmd = &cobra.Command{
	Use:   "build [service...]",
	Short: "Synthesize the compose document and env file for the enabled services",
	Long: `Build resolves the enabled services (from config, plus any named on the
command line) to their full dependency closure, validates every field,
and writes docker-compose.yml, .env and a build summary to the output
directory. Secrets generated by a previous build are preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		writer := artifacts.NewWriter(cfg.Output, logger)
		existing, err := writer.LoadExistingEnv()
		if err != nil {
			return err
		}

		result, err := runPipeline(args, existing)
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			preserved := result.output.PreserveSecrets(existing)
			if preserved > 0 {
				logger.Info("preserved secrets from previous build", "count", preserved)
			}
		}

		if err := compose.Check(result.output.Document); err != nil {
			return err
		}

		if err := writer.WriteAll(result.output.Document, result.output.Env, result.resolution.Summary()); err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), result.resolution.Summary())
		for _, key := range result.output.GeneratedKeys() {
			fmt.Fprintf(cmd.OutOrStdout(), "  generated %s\n", key)
		}
		return nil
	},
}

// pipelineResult carries the outcome of the pure part of a build.
type pipelineResult struct {
	catalog    *catalog.Catalog
	resolution *resolver.Result
	output     *compose.Output
}

// runPipeline executes the pure build stages: load the catalog, resolve the
// dependency closure, validate fields for every closure member, and
// synthesize the document. Nothing touches disk; existingEnv carries a
// previous build's env values so credentials derived here stay stable.
func runPipeline(extra []string, existingEnv map[string]string) (*pipelineResult, error) {
	if err := domain.ValidateDomainName(cfg.Domain); err != nil {
		return nil, configError{fmt.Errorf("domain %q: %w", cfg.Domain, err)}
	}
	if cfg.Email != "" {
		if err := domain.ValidateEmail(cfg.Email); err != nil {
			return nil, configError{fmt.Errorf("email %q: %w", cfg.Email, err)}
		}
	}

	cat, err := catalog.Load(cfg.Templates)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "dir", cfg.Templates, "services", cat.Len())

	requested := cfg.EnabledServices()
	requested = append(requested, extra...)
	if len(requested) == 0 {
		return nil, configError{fmt.Errorf("no services enabled; enable some in config or name them as arguments")}
	}

	resolution, err := resolver.Resolve(cat, requested)
	if err != nil {
		return nil, err
	}
	logger.Info("dependencies resolved",
		"build_id", resolution.BuildID,
		"requested", len(requested),
		"resolved", len(resolution.Entries))

	fields := make(map[string]map[string]validation.ResolvedField, len(resolution.Entries))
	for _, id := range resolution.IDs() {
		tmpl, _ := cat.Get(id)
		resolved, err := validation.ResolveFields(tmpl, cfg.Profile, cfg.Services[id].Fields)
		if err != nil {
			return nil, err
		}
		fields[id] = resolved
	}

	dashboardUsers, dashboardEnv, err := dashboardAuth(existingEnv)
	if err != nil {
		return nil, err
	}

	output, err := compose.Synthesize(compose.Params{
		Catalog:        cat,
		Resolution:     resolution,
		Fields:         fields,
		Profile:        cfg.Profile,
		Domain:         cfg.Domain,
		Email:          cfg.Email,
		ProxyNetwork:   cfg.Proxy.Network,
		ProxyServiceID: cfg.Proxy.Service,
		DashboardUsers: dashboardUsers,
	})
	if err != nil {
		return nil, err
	}

	for key, value := range dashboardEnv {
		output.AddGeneratedEnv(key, value)
	}

	return &pipelineResult{catalog: cat, resolution: resolution, output: output}, nil
}

// dashboardPasswordKey is the env entry a managed dashboard password is
// persisted under and read back from on rebuilds.
const dashboardPasswordKey = "LABCTL_DASHBOARD_PASSWORD"

// dashboardAuth builds the htpasswd entry protecting the proxy dashboard.
// A password that is not configured is carried over from the previous
// build's env file, or generated once and returned for persistence there;
// it is never written to the log.
func dashboardAuth(existingEnv map[string]string) (string, map[string]string, error) {
	if cfg.Proxy.DashboardUser == "" {
		return "", nil, nil
	}
	password := cfg.Proxy.DashboardPassword
	var persist map[string]string
	if password == "" {
		if prev := existingEnv[dashboardPasswordKey]; prev != "" {
			password = prev
		} else {
			generated, err := secrets.Password(secrets.DefaultPasswordLength)
			if err != nil {
				return "", nil, err
			}
			password = generated
			logger.Info("generated dashboard password",
				"user", cfg.Proxy.DashboardUser,
				"env_key", dashboardPasswordKey)
		}
		persist = map[string]string{dashboardPasswordKey: password}
	}
	entry, err := secrets.HtpasswdEntry(cfg.Proxy.DashboardUser, password)
	if err != nil {
		return "", nil, err
	}
	return entry, persist, nil
}
