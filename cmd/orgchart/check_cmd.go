package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		source     sourceFlags
		allowIssue bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report data problems in the employee source",
		Long: `Report duplicate ids, missing ids, self managers, unresolvable managers
and manager cycles as a JSON report. Exits 2 when any issue is found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := source.openService(cmd)
			defer cleanup()
			if err != nil {
				return err
			}
			report, err := svc.CheckQuality(cmd.Context())
			if err != nil {
				return serviceErr(err)
			}
			if err := writeJSONLine(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.OK() && !allowIssue {
				return withCode(exitValidation, fmt.Errorf("%d data quality issue(s) found", len(report.Issues)))
			}
			return nil
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&allowIssue, "allow-issues", false, "exit 0 even when issues are found")
	return cmd
}
