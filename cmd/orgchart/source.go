package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/eventbus"
	"github.com/iota-uz/orgchart/pkg/logging"
)

// sourceFlags are shared by the one-shot commands. --file skips the
// environment entirely; otherwise ORGCHART_SOURCE decides.
type sourceFlags struct {
	envFiles []string
	file     string
	keywords []string
	logLevel string
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", []string{".env", ".env.local"}, "env files to load when --file is not set")
	cmd.Flags().StringVar(&f.file, "file", "", "employee file (.json, .yaml, .yml or .csv)")
	cmd.Flags().StringSliceVar(&f.keywords, "root-keywords", nil, "title keywords used to guess roots when every manager resolves")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level written to stderr")
}

type filterFlags struct {
	businessFunction string
	department       string
	positionGroup    string
	managerID        string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.businessFunction, "business-function", "", "only employees in this business function")
	cmd.Flags().StringVar(&f.department, "department", "", "only employees in this department")
	cmd.Flags().StringVar(&f.positionGroup, "position-group", "", "only employees in this position group")
	cmd.Flags().StringVar(&f.managerID, "manager-id", "", "only this manager and everyone under them")
}

func (f *filterFlags) filter() employee.Filter {
	return employee.Filter{
		BusinessFunction: strings.TrimSpace(f.businessFunction),
		Department:       strings.TrimSpace(f.department),
		PositionGroup:    strings.TrimSpace(f.positionGroup),
		ManagerID:        strings.TrimSpace(f.managerID),
	}
}

// openService builds a service over the configured source. The returned
// cleanup must always be called.
func (f *sourceFlags) openService(cmd *cobra.Command) (*services.OrgChartService, func(), error) {
	level, err := logrus.ParseLevel(f.logLevel)
	if err != nil {
		return nil, func() {}, withCode(exitUsage, fmt.Errorf("invalid --log-level: %q", f.logLevel))
	}
	logger := logging.ConsoleLogger(level)
	logger.SetOutput(cmd.ErrOrStderr())

	if strings.TrimSpace(f.file) != "" {
		svc := services.NewOrgChartService(
			persistence.NewFileEmployeeRepository(f.file),
			persistence.NewMemorySessionRepository(0),
			eventbus.NewEventPublisher(logger),
			logger,
			services.Options{RootKeywords: f.keywords},
		)
		return svc, func() {}, nil
	}

	conf, err := configuration.Load(f.envFiles...)
	if err != nil {
		return nil, func() {}, withCode(exitUsage, err)
	}
	cleanup := conf.Unload

	var db persistence.Querier
	if conf.OrgChart.Source == configuration.SourcePostgres {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		pool, err := pgxpool.New(ctx, conf.Database.Opts)
		if err != nil {
			cleanup()
			return nil, func() {}, withCode(exitSource, fmt.Errorf("connect postgres: %w", err))
		}
		db = pool
		cleanup = func() {
			pool.Close()
			conf.Unload()
		}
	}

	repo, err := orgchart.NewEmployeeRepository(conf, db)
	if err != nil {
		cleanup()
		return nil, func() {}, withCode(exitUsage, err)
	}
	opts := orgchart.ServiceOptions(conf)
	if len(f.keywords) > 0 {
		opts.RootKeywords = f.keywords
	}
	svc := services.NewOrgChartService(
		repo,
		persistence.NewMemorySessionRepository(0),
		eventbus.NewEventPublisher(logger),
		logger,
		opts,
	)
	return svc, cleanup, nil
}

// serviceErr maps service failures onto exit codes.
func serviceErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, employee.ErrSourceUnavailable):
		return withCode(exitSource, err)
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, services.ErrManagerCycle), errors.Is(err, services.ErrInvalidInput):
		return withCode(exitValidation, err)
	default:
		return err
	}
}
