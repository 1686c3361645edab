package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/patel5d2/labctl/internal/core/domain"
)

// =============================================================================
// Loader
// =============================================================================

// Load parses every template document in dir into a Catalog.
//
// It fails with a CatalogError when two templates share an id, a template's
// dependencies or conflicts_with reference an unknown id, a field type is
// unrecognized, or a choice/multiselect field is required without choices or
// a default. Dangling references are a catalog-integrity defect and are
// rejected here, before any resolution runs.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, NewCatalogError(dir, "", "template directory not found", ErrDirNotFound)
	}

	files, err := templateFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, NewCatalogError(dir, "", "no template documents found", ErrNoTemplates)
	}

	cat := &Catalog{templates: make(map[string]*domain.ServiceTemplate)}

	for _, file := range files {
		tmpl, err := loadTemplate(file)
		if err != nil {
			return nil, err
		}

		if cat.Has(tmpl.ID) {
			return nil, NewCatalogError(file, tmpl.ID,
				fmt.Sprintf("duplicate service id %q", tmpl.ID), ErrDuplicateID)
		}

		cat.templates[tmpl.ID] = tmpl
		cat.order = append(cat.order, tmpl.ID)
	}

	if err := checkReferences(cat); err != nil {
		return nil, err
	}

	return cat, nil
}

// templateFiles lists the YAML documents in dir, sorted by file name so the
// catalog declaration order is stable across runs.
func templateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewCatalogError(dir, "", err.Error(), ErrDirNotFound)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadTemplate(file string) (*domain.ServiceTemplate, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, NewCatalogError(file, "", err.Error(), ErrDirNotFound)
	}

	var tmpl domain.ServiceTemplate
	if err := yaml.Unmarshal(raw, &tmpl); err != nil {
		return nil, NewCatalogError(file, "", "invalid YAML syntax: "+err.Error(), ErrInvalidYAML)
	}

	if tmpl.Maturity == "" {
		tmpl.Maturity = domain.MaturityStable
	}
	if tmpl.Compose.Restart == "" {
		tmpl.Compose.Restart = "unless-stopped"
	}

	if err := validateTemplate(file, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// validateTemplate runs the per-template integrity checks that need no view
// of the rest of the catalog.
func validateTemplate(file string, tmpl *domain.ServiceTemplate) error {
	if err := domain.ValidateID(tmpl.ID); err != nil {
		return NewCatalogError(file, tmpl.ID, err.Error(), ErrInvalidTemplate)
	}
	if !tmpl.Maturity.IsValid() {
		return NewCatalogError(file, tmpl.ID,
			fmt.Sprintf("invalid maturity %q", tmpl.Maturity), ErrInvalidTemplate)
	}

	if errs := domain.ValidateFields(tmpl.Fields); len(errs) > 0 {
		return NewCatalogError(file, tmpl.ID, joinErrors(errs), errs[0])
	}
	if errs := domain.ValidateFragment(tmpl.Compose); len(errs) > 0 {
		return NewCatalogError(file, tmpl.ID, joinErrors(errs), errs[0])
	}

	fieldKeys := make(map[string]bool, len(tmpl.Fields))
	for _, f := range tmpl.Fields {
		fieldKeys[f.Key] = true
	}

	// Visibility expressions and from_field env sources may only reference
	// fields the template declares.
	for _, f := range tmpl.Fields {
		for _, expr := range []string{f.ShowIf, f.HiddenIf} {
			if expr == "" {
				continue
			}
			for _, ref := range conditionFieldRefs(expr) {
				if !fieldKeys[ref] {
					return NewCatalogError(file, tmpl.ID,
						fmt.Sprintf("field %q references unknown field %q in visibility condition", f.Key, ref),
						ErrUnknownFieldRef)
				}
			}
		}
	}
	for _, env := range tmpl.Compose.Environment {
		if env.FromField != "" && !fieldKeys[env.FromField] {
			return NewCatalogError(file, tmpl.ID,
				fmt.Sprintf("environment %q references unknown field %q", env.Key, env.FromField),
				ErrUnknownFieldRef)
		}
	}

	return nil
}

// checkReferences validates the cross-template references once the whole
// directory is loaded.
func checkReferences(cat *Catalog) error {
	for _, id := range cat.order {
		tmpl := cat.templates[id]
		for _, dep := range tmpl.Dependencies {
			if !cat.Has(dep) {
				return NewCatalogError("", id,
					fmt.Sprintf("dependency %q is not in the catalog", dep), ErrUnknownDependency)
			}
		}
		for _, other := range tmpl.ConflictsWith {
			if !cat.Has(other) {
				return NewCatalogError("", id,
					fmt.Sprintf("conflicts_with %q is not in the catalog", other), ErrUnknownConflict)
			}
		}
	}
	return nil
}

var conditionRefRegex = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\s*[!=]=`)

// conditionFieldRefs extracts the field keys referenced on the left-hand side
// of a visibility expression.
func conditionFieldRefs(expr string) []string {
	var refs []string
	for _, m := range conditionRefRegex.FindAllStringSubmatch(expr, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
