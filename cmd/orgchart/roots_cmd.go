package main

import (
	"github.com/spf13/cobra"
)

func newRootsCmd() *cobra.Command {
	var (
		source sourceFlags
		filter filterFlags
	)
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "Print the inferred roots and the strategy that chose them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := source.openService(cmd)
			defer cleanup()
			if err != nil {
				return err
			}
			roots, err := svc.Roots(cmd.Context(), filter.filter())
			if err != nil {
				return serviceErr(err)
			}
			if roots.IDs == nil {
				roots.IDs = []string{}
			}
			return writeJSONLine(cmd.OutOrStdout(), roots)
		},
	}
	source.bind(cmd)
	filter.bind(cmd)
	return cmd
}
