package application

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/pkg/logging"
)

type stubController struct{ key string }

func (c *stubController) Key() string { return c.key }
func (c *stubController) Register(r *mux.Router) {
	r.HandleFunc(c.key, func(http.ResponseWriter, *http.Request) {})
}

type greeter struct{ name string }

type stubModule struct {
	name string
	err  error
}

func (m *stubModule) Name() string { return m.name }
func (m *stubModule) Register(app Application) error {
	if m.err != nil {
		return m.err
	}
	app.RegisterServices(&greeter{name: m.name})
	return nil
}

func TestApplication_ControllersAreOrderedByKey(t *testing.T) {
	app := New(&ApplicationOptions{Logger: logging.Discard()})
	app.RegisterControllers(&stubController{key: "/b"}, &stubController{key: "/a"}, &stubController{key: "/b"})

	var keys []string
	for _, c := range app.Controllers() {
		keys = append(keys, c.Key())
	}
	require.Equal(t, []string{"/a", "/b"}, keys)
	require.NotNil(t, app.EventPublisher())
}

func TestApplication_ServiceRegistry(t *testing.T) {
	app := New(&ApplicationOptions{Logger: logging.Discard()})
	require.NoError(t, LoadModules(app, &stubModule{name: "orgchart"}))

	svc := app.Service(greeter{}).(*greeter)
	require.Equal(t, "orgchart", svc.name)
	require.Len(t, app.Services(), 1)

	require.Panics(t, func() { app.Service(stubController{}) })
}

func TestLoadModules_StopsOnError(t *testing.T) {
	app := New(&ApplicationOptions{Logger: logging.Discard()})
	boom := errors.New("boom")
	err := LoadModules(app, &stubModule{name: "broken", err: boom}, &stubModule{name: "never"})
	require.ErrorIs(t, err, boom)
	require.Empty(t, app.Services())
}
