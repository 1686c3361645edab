package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patel5d2/labctl/internal/core/domain"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const postgresTemplate = `
id: postgres
name: PostgreSQL
category: database
maturity: stable
fields:
  - key: db_password
    type: password
    generate: true
compose:
  image: postgres:16
  environment:
    - key: POSTGRES_PASSWORD
      from_field: db_password
  healthcheck:
    test: ["CMD-SHELL", "pg_isready"]
    interval: 10s
  outputs:
    dsn: postgres://postgres@postgres:5432/postgres
`

const grafanaTemplate = `
id: grafana
name: Grafana
category: monitoring
dependencies:
  - postgres
compose:
  image: grafana/grafana:11.2.0
  web:
    subdomain: grafana
    port: 3000
`

func writeCatalog(t *testing.T, templates map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// =============================================================================
// Loader Tests
// =============================================================================

func TestLoad_Minimal(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"grafana.yaml":  grafanaTemplate,
		"postgres.yaml": postgresTemplate,
	})

	cat, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len())
	assert.True(t, cat.Has("postgres"))

	tmpl, ok := cat.Get("grafana")
	require.True(t, ok)
	assert.Equal(t, "Grafana", tmpl.Name)
	assert.Equal(t, []string{"postgres"}, tmpl.Dependencies)
	require.NotNil(t, tmpl.Compose.Web)
	assert.Equal(t, 3000, tmpl.Compose.Web.Port)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"grafana.yaml":  grafanaTemplate,
		"postgres.yaml": postgresTemplate,
	})

	cat, err := Load(dir)
	require.NoError(t, err)

	tmpl, _ := cat.Get("grafana")
	assert.Equal(t, domain.MaturityStable, tmpl.Maturity)
	assert.Equal(t, "unless-stopped", tmpl.Compose.Restart)
}

func TestLoad_OrderFollowsFileNames(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"20-grafana.yaml":  grafanaTemplate,
		"10-postgres.yaml": postgresTemplate,
	})

	cat, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"postgres", "grafana"}, cat.Order())
	assert.Equal(t, 0, cat.Rank("postgres"))
	assert.Equal(t, 1, cat.Rank("grafana"))
}

func TestLoad_DirNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrDirNotFound)
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestLoad_SkipsDotfilesAndNonYAML(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"postgres.yaml": postgresTemplate,
		".hidden.yaml":  "not even yaml: [",
		"README.md":     "# notes",
	})

	cat, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"bad.yaml": "id: [unclosed",
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestLoad_DuplicateID(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"a.yaml": postgresTemplate,
		"b.yaml": postgresTemplate,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrDuplicateID)

	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "postgres", catErr.Service)
}

func TestLoad_UnknownDependency(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"grafana.yaml": grafanaTemplate,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrUnknownDependency)
}

func TestLoad_UnknownConflict(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"caddy.yaml": `
id: caddy
name: Caddy
category: proxy
conflicts_with:
  - traefik
compose:
  image: caddy:2
`,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrUnknownConflict)
}

func TestLoad_MissingImage(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"bad.yaml": `
id: bad
name: Bad
category: misc
compose:
  container_name: bad
`,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, domain.ErrImageRequired)
}

func TestLoad_ConditionReferencesUnknownField(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"bad.yaml": `
id: bad
name: Bad
category: misc
fields:
  - key: smtp_host
    type: string
    show_if: enable_mail == true
compose:
  image: bad:1
`,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrUnknownFieldRef)
}

func TestLoad_EnvReferencesUnknownField(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"bad.yaml": `
id: bad
name: Bad
category: misc
compose:
  image: bad:1
  environment:
    - key: ADMIN_USER
      from_field: admin_user
`,
	})

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrUnknownFieldRef)
}

// =============================================================================
// Catalog View Tests
// =============================================================================

func TestCatalog_CategoriesAndFilter(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"postgres.yaml": postgresTemplate,
		"grafana.yaml":  grafanaTemplate,
		"beta.yaml": `
id: immich
name: Immich
category: media
maturity: beta
compose:
  image: ghcr.io/immich-app/immich-server:v1.119.0
`,
	})

	cat, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"database", "media", "monitoring"}, cat.CategoryNames())
	assert.Equal(t, []string{"immich"}, cat.Categories()["media"])

	assert.Equal(t, []string{"immich", "grafana", "postgres"}, cat.FilterByMaturity(domain.MaturityBeta))
	assert.Equal(t, []string{"grafana", "postgres"}, cat.FilterByMaturity(domain.MaturityStable))
}
