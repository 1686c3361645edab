package catalog

import (
	"sort"

	"github.com/patel5d2/labctl/internal/core/domain"
)

// =============================================================================
// Catalog
// =============================================================================

// Catalog is the full set of loaded service templates, keyed by id.
// It is read-only after Load returns; resolution and synthesis rely on that.
type Catalog struct {
	templates map[string]*domain.ServiceTemplate
	order     []string // declaration order: file-name sort, then in-file order
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*domain.ServiceTemplate, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// Has reports whether a template with the given id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.templates[id]
	return ok
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Order returns service ids in catalog declaration order. The slice is a
// copy; callers may reorder it freely.
func (c *Catalog) Order() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Rank returns the declaration-order index of a service id, used as the
// deterministic tie-break when multiple topological orderings are valid.
func (c *Catalog) Rank(id string) int {
	for i, v := range c.order {
		if v == id {
			return i
		}
	}
	return len(c.order)
}

// Categories groups service ids by template category, each group in catalog
// order, category names sorted.
func (c *Catalog) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, id := range c.order {
		t := c.templates[id]
		out[t.Category] = append(out[t.Category], id)
	}
	return out
}

// CategoryNames returns the sorted list of category names.
func (c *Catalog) CategoryNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range c.order {
		cat := c.templates[id].Category
		if !seen[cat] {
			seen[cat] = true
			names = append(names, cat)
		}
	}
	sort.Strings(names)
	return names
}

// FilterByMaturity returns the ids of templates meeting the minimum maturity
// level, preserving catalog order.
func (c *Catalog) FilterByMaturity(min domain.Maturity) []string {
	var out []string
	for _, id := range c.order {
		if c.templates[id].Maturity.AtLeast(min) {
			out = append(out, id)
		}
	}
	return out
}
