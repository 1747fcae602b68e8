package orgchart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/logging"
)

func TestModule_Register(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"employeeId":"ceo"},{"employeeId":"cto","lineManagerId":"ceo"}]`), 0o600))

	app := application.New(&application.ApplicationOptions{Logger: logging.Discard()})
	require.NoError(t, application.LoadModules(app, NewModule(&ModuleOptions{
		Employees: persistence.NewFileEmployeeRepository(path),
	})))
	require.Equal(t, 3, app.EventPublisher().SubscribersCount())
	require.Len(t, app.Controllers(), 1)

	svc := app.Service(services.OrgChartService{}).(*services.OrgChartService)
	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snap.Hierarchy.Len())

	r := mux.NewRouter()
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orgchart/api/roots", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ids":["ceo"],"strategy":"unresolved-manager"}`, rec.Body.String())
}

func TestModule_RegisterRequiresEmployees(t *testing.T) {
	app := application.New(&application.ApplicationOptions{Logger: logging.Discard()})
	require.Error(t, NewModule(&ModuleOptions{}).Register(app))
}

func TestNewEmployeeRepository(t *testing.T) {
	conf := &configuration.Configuration{}

	conf.OrgChart.Source = configuration.SourceFile
	conf.OrgChart.File = "employees.csv"
	repo, err := NewEmployeeRepository(conf, nil)
	require.NoError(t, err)
	require.IsType(t, &persistence.FileEmployeeRepository{}, repo)

	conf.OrgChart.Source = configuration.SourceAPI
	conf.OrgChart.APIURL = "https://hr.example.com"
	repo, err = NewEmployeeRepository(conf, nil)
	require.NoError(t, err)
	require.IsType(t, &persistence.HTTPEmployeeRepository{}, repo)

	conf.OrgChart.Source = configuration.SourcePostgres
	_, err = NewEmployeeRepository(conf, nil)
	require.Error(t, err)

	conf.OrgChart.Source = "ldap"
	_, err = NewEmployeeRepository(conf, nil)
	require.Error(t, err)
}

func TestNewSessionRepository(t *testing.T) {
	conf := &configuration.Configuration{}
	conf.OrgChart.StateStore = configuration.StateStoreMemory
	repo, err := NewSessionRepository(conf, nil)
	require.NoError(t, err)
	require.IsType(t, &persistence.MemorySessionRepository{}, repo)

	conf.OrgChart.StateStore = configuration.StateStoreRedis
	_, err = NewSessionRepository(conf, nil)
	require.Error(t, err)

	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.Equal(t, 2, client.Options().DB)

	repo, err = NewSessionRepository(conf, client)
	require.NoError(t, err)
	require.IsType(t, &persistence.RedisSessionRepository{}, repo)

	bare, err := NewRedisClient("localhost:6380")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bare.Close() })
	require.Equal(t, "localhost:6380", bare.Options().Addr)
}
