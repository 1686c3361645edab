package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [service...]",
	Short: "Check the catalog, selection and field values without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline(args, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d services resolve, validate and synthesize cleanly\n",
			len(result.resolution.Entries))
		fmt.Fprint(cmd.OutOrStdout(), result.resolution.Summary())
		return nil
	},
}
