package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/patel5d2/labctl/internal/core/catalog"
	"github.com/patel5d2/labctl/internal/core/domain"
)

var catalogMinMaturity string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the services available in the template directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.Templates)
		if err != nil {
			return err
		}

		min := domain.Maturity(catalogMinMaturity)
		if !min.IsValid() {
			return configError{fmt.Errorf("invalid maturity %q", catalogMinMaturity)}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		for _, category := range cat.CategoryNames() {
			fmt.Fprintf(w, "%s\n", strings.ToUpper(category))
			for _, id := range cat.Categories()[category] {
				tmpl, _ := cat.Get(id)
				if !tmpl.Maturity.AtLeast(min) {
					continue
				}
				deps := ""
				if len(tmpl.Dependencies) > 0 {
					deps = "needs " + strings.Join(tmpl.Dependencies, ", ")
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", tmpl.ID, tmpl.Maturity, tmpl.Name, deps)
			}
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogMinMaturity, "min-maturity", "alpha",
		"hide services below this maturity (alpha, beta, stable)")
}
