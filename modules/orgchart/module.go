package orgchart

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/controllers"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/configuration"
)

type ModuleOptions struct {
	Employees employee.Repository
	Sessions  session.Repository
	Service   services.Options
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	if m.options == nil || m.options.Employees == nil {
		return errors.New("orgchart: employee repository is required")
	}
	sessions := m.options.Sessions
	if sessions == nil {
		sessions = persistence.NewMemorySessionRepository(0)
	}

	app.RegisterServices(
		services.NewOrgChartService(
			m.options.Employees,
			sessions,
			app.EventPublisher(),
			app.Logger(),
			m.options.Service,
		),
	)
	app.RegisterControllers(
		controllers.NewOrgChartAPIController(app),
	)

	logger := app.Logger()
	app.EventPublisher().Subscribe(func(e *services.RefreshedEvent) {
		logger.WithFields(logrus.Fields{
			"generation": e.Generation,
			"records":    e.Records,
			"roots":      len(e.Roots.IDs),
			"strategy":   e.Roots.Strategy,
		}).Debug("orgchart snapshot published")
	})
	app.EventPublisher().Subscribe(func(e *services.RefreshFailedEvent) {
		logger.WithError(e.Err).WithField("generation", e.Generation).Warn("orgchart refresh failed")
	})
	app.EventPublisher().Subscribe(func(e *services.SessionUpdatedEvent) {
		fields := logrus.Fields{
			"session":  e.SessionID,
			"action":   e.Action.Type,
			"expanded": e.Expanded,
		}
		if e.Selected != nil {
			fields["selected"] = e.Selected.EmployeeID
		}
		logger.WithFields(fields).Debug("orgchart session updated")
	})
	return nil
}

func (m *Module) Name() string {
	return "orgchart"
}

// ServiceOptions maps configuration onto service options.
func ServiceOptions(conf *configuration.Configuration) services.Options {
	return services.Options{
		RootKeywords:     conf.OrgChart.RootKeywords,
		DefaultDirection: services.Direction(conf.OrgChart.DefaultDirection),
	}
}

// NewEmployeeRepository picks the employee source named by ORGCHART_SOURCE.
// db may be nil unless the source is postgres.
func NewEmployeeRepository(conf *configuration.Configuration, db persistence.Querier) (employee.Repository, error) {
	opts := conf.OrgChart
	switch opts.Source {
	case configuration.SourceFile:
		return persistence.NewFileEmployeeRepository(opts.File), nil
	case configuration.SourceAPI:
		repo, err := persistence.NewHTTPEmployeeRepository(persistence.HTTPEmployeeRepositoryOptions{
			BaseURL:         opts.APIURL,
			Path:            opts.APIPath,
			Token:           opts.APIToken,
			Timeout:         opts.APITimeout,
			RequestIDHeader: conf.RequestIDHeader,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case configuration.SourcePostgres:
		if db == nil {
			return nil, errors.New("postgres source requires a database connection")
		}
		return persistence.NewPgEmployeeRepository(db), nil
	default:
		return nil, errors.Errorf("unknown employee source %q", opts.Source)
	}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse REDIS_URL")
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// NewSessionRepository picks the session store named by
// ORGCHART_STATE_STORE. client is only used for redis.
func NewSessionRepository(conf *configuration.Configuration, client redis.UniversalClient) (session.Repository, error) {
	switch conf.OrgChart.StateStore {
	case configuration.StateStoreRedis:
		if client == nil {
			return nil, errors.New("redis state store requires a redis client")
		}
		return persistence.NewRedisSessionRepository(client, conf.OrgChart.StateTTL), nil
	case configuration.StateStoreMemory, "":
		return persistence.NewMemorySessionRepository(conf.OrgChart.StateTTL), nil
	default:
		return nil, errors.Errorf("unknown state store %q", conf.OrgChart.StateStore)
	}
}
