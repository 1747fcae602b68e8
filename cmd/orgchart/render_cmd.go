package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/export"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

const cliSession = "cli"

type renderOptions struct {
	source    sourceFlags
	filter    filterFlags
	direction string
	expanded  []string
	expandAll bool
	navigate  string
	format    string
	output    string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out the chart and print it as JSON or XLSX",
		Long: `Lay out the visible chart.

By default the roots are expanded. --expanded sets the expanded ids exactly;
--expand-all and --navigate start from the default view instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}
	opts.source.bind(cmd)
	opts.filter.bind(cmd)
	cmd.Flags().StringVar(&opts.direction, "direction", "", "layout direction: TB or LR")
	cmd.Flags().StringSliceVar(&opts.expanded, "expanded", nil, "exact set of expanded employee ids")
	cmd.Flags().BoolVar(&opts.expandAll, "expand-all", false, "expand every employee with reports")
	cmd.Flags().StringVar(&opts.navigate, "navigate", "", "expand the path to this employee and select it")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json or xlsx")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runRender(cmd *cobra.Command, opts renderOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "json" && format != "xlsx" {
		return withCode(exitUsage, fmt.Errorf("invalid --format: %q", opts.format))
	}
	var dir services.Direction
	if strings.TrimSpace(opts.direction) != "" {
		d, err := services.ParseDirection(opts.direction)
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --direction: %q", opts.direction))
		}
		dir = d
	}
	exact := cmd.Flags().Changed("expanded")
	if exact && (opts.expandAll || opts.navigate != "") {
		return withCode(exitUsage, fmt.Errorf("--expanded cannot be combined with --expand-all or --navigate"))
	}

	svc, cleanup, err := opts.source.openService(cmd)
	defer cleanup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	filter := opts.filter.filter()

	var chart services.Chart
	if exact {
		expanded := make([]string, 0, len(opts.expanded))
		for _, id := range opts.expanded {
			if id = strings.TrimSpace(id); id != "" {
				expanded = append(expanded, id)
			}
		}
		chart, err = svc.Chart(ctx, services.ChartRequest{Filter: filter, Expanded: expanded, Direction: dir})
		if err != nil {
			return serviceErr(err)
		}
	} else {
		settings := services.SessionSettings{Filter: &filter}
		if dir != "" {
			settings.Direction = &dir
		}
		if _, err := svc.ConfigureSession(ctx, cliSession, settings); err != nil {
			return serviceErr(err)
		}
		if opts.expandAll {
			if _, err := svc.ApplyAction(ctx, cliSession, services.ExpandAll()); err != nil {
				return serviceErr(err)
			}
		}
		if id := strings.TrimSpace(opts.navigate); id != "" {
			if _, err := svc.ApplyAction(ctx, cliSession, services.NavigateTo(id)); err != nil {
				return serviceErr(err)
			}
		}
		chart, _, err = svc.SessionChart(ctx, cliSession)
		if err != nil {
			return serviceErr(err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("create output: %w", err))
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return writeChart(out, format, chart)
}

func writeChart(w io.Writer, format string, chart services.Chart) error {
	if format == "xlsx" {
		if err := export.WriteChartXLSX(w, chart); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		return nil
	}
	return writeJSONLine(w, chart)
}
