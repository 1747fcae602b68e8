package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/eventbus"
	"github.com/iota-uz/orgchart/pkg/logging"
)

type stubEmployees struct {
	records []employee.Record
	err     error
}

func (s stubEmployees) GetAll(context.Context) ([]employee.Record, error) {
	return s.records, s.err
}

func testRecords() []employee.Record {
	return []employee.Record{
		{EmployeeID: "ceo", Name: "Ada", Title: "CEO"},
		{EmployeeID: "cto", Name: "Grace", Title: "CTO", LineManagerID: "ceo", Department: "Engineering"},
		{EmployeeID: "cfo", Name: "Joan", Title: "CFO", LineManagerID: "ceo", Department: "Finance"},
		{EmployeeID: "dev1", Name: "Linus", Title: "Engineer", LineManagerID: "cto", Department: "Engineering"},
		{EmployeeID: "dev2", Name: "Ken", Title: "Engineer", LineManagerID: "cto", Department: "Engineering"},
		{EmployeeID: "open", Name: "Vacant", Title: "Accountant", LineManagerID: "cfo", Department: "Finance", IsVacant: true},
	}
}

func newTestRouter(t *testing.T, repo employee.Repository) *mux.Router {
	t.Helper()
	logger := logging.Discard()
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterServices(services.NewOrgChartService(
		repo,
		persistence.NewMemorySessionRepository(0),
		app.EventPublisher(),
		logger,
		services.Options{},
	))
	r := mux.NewRouter()
	NewOrgChartAPIController(app).Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type apiErrorBody struct {
	Code string            `json:"code"`
	Meta map[string]string `json:"meta"`
}

type chartBody struct {
	Nodes []struct {
		ID         string `json:"id"`
		IsExpanded bool   `json:"isExpanded"`
	} `json:"nodes"`
	Edges []struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Style  struct {
			Dashed bool `json:"dashed"`
		} `json:"style"`
	} `json:"edges"`
	Roots     []string `json:"roots"`
	Direction string   `json:"direction"`
}

func (c chartBody) ids() []string {
	out := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestOrgChartAPIController_Employees(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	rec := do(t, r, http.MethodGet, "/orgchart/api/employees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Total int `json:"total"`
	}](t, rec)
	require.Equal(t, 6, list.Total)

	rec = do(t, r, http.MethodGet, "/orgchart/api/employees?department=Engineering", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, decode[struct {
		Total int `json:"total"`
	}](t, rec).Total)

	rec = do(t, r, http.MethodGet, "/orgchart/api/employees/cfo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Joan", decode[employee.Record](t, rec).Name)

	rec = do(t, r, http.MethodGet, "/orgchart/api/employees/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ORGCHART_EMPLOYEE_NOT_FOUND", decode[apiErrorBody](t, rec).Code)
}

func TestOrgChartAPIController_Search(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	rec := do(t, r, http.MethodGet, "/orgchart/api/employees/search?q=dev1&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Results []services.SearchResult `json:"results"`
	}](t, rec)
	require.NotEmpty(t, body.Results)
	require.Equal(t, "dev1", body.Results[0].Employee.EmployeeID)

	rec = do(t, r, http.MethodGet, "/orgchart/api/employees/search", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode[apiErrorBody](t, rec)
	require.Equal(t, "ORGCHART_VALIDATION_FAILED", errBody.Code)
	require.Equal(t, "required", errBody.Meta["Query"])

	rec = do(t, r, http.MethodGet, "/orgchart/api/employees/search?q=a&limit=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ORGCHART_INVALID_QUERY", decode[apiErrorBody](t, rec).Code)
}

func TestOrgChartAPIController_RootsAndQuality(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	rec := do(t, r, http.MethodGet, "/orgchart/api/roots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	roots := decode[services.RootInference](t, rec)
	require.Equal(t, []string{"ceo"}, roots.IDs)

	rec = do(t, r, http.MethodGet, "/orgchart/api/roots?managerId=cfo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"cfo"}, decode[services.RootInference](t, rec).IDs)

	rec = do(t, r, http.MethodGet, "/orgchart/api/quality", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[services.QualityReport](t, rec)
	require.Empty(t, report.Issues)
	require.Equal(t, 6, report.Unique)
}

func TestOrgChartAPIController_Chart(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	rec := do(t, r, http.MethodGet, "/orgchart/api/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	chart := decode[chartBody](t, rec)
	require.ElementsMatch(t, []string{"ceo", "cto", "cfo"}, chart.ids())
	require.Equal(t, "TB", chart.Direction)

	rec = do(t, r, http.MethodGet, "/orgchart/api/chart?expanded=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"ceo"}, decode[chartBody](t, rec).ids())

	rec = do(t, r, http.MethodGet, "/orgchart/api/chart?expanded=ceo,cfo&direction=lr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	chart = decode[chartBody](t, rec)
	require.ElementsMatch(t, []string{"ceo", "cto", "cfo", "open"}, chart.ids())
	require.Equal(t, "LR", chart.Direction)
	for _, e := range chart.Edges {
		require.Equal(t, e.Target == "open", e.Style.Dashed)
	}

	rec = do(t, r, http.MethodGet, "/orgchart/api/chart?direction=diagonal", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/orgchart/api/chart.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	require.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestOrgChartAPIController_Sessions(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	type sessionBody struct {
		Session struct {
			Expanded   []string `json:"expanded"`
			SelectedID string   `json:"selectedId"`
			Direction  string   `json:"direction"`
		} `json:"session"`
		Chart chartBody `json:"chart"`
	}

	rec := do(t, r, http.MethodGet, "/orgchart/api/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[sessionBody](t, rec)
	require.Equal(t, []string{"ceo"}, body.Session.Expanded)

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"toggle","employeeId":"cto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	require.Equal(t, []string{"ceo", "cto"}, body.Session.Expanded)
	require.ElementsMatch(t, []string{"ceo", "cto", "cfo", "dev1", "dev2"}, body.Chart.ids())

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"navigateTo","employeeId":"open"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	require.Equal(t, "open", body.Session.SelectedID)
	require.Contains(t, body.Chart.ids(), "open")

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"collapseAll"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	require.Equal(t, []string{"ceo"}, body.Session.Expanded)

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"toggle"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ORGCHART_VALIDATION_FAILED", decode[apiErrorBody](t, rec).Code)

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"toggle","employeeId":"ceo","extra":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ORGCHART_INVALID_BODY", decode[apiErrorBody](t, rec).Code)

	rec = do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"toggle","employeeId":"ghost"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPut, "/orgchart/api/sessions/s1/settings", `{"direction":"LR","filter":{"managerId":"cto"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	require.Equal(t, "LR", body.Session.Direction)
	require.Equal(t, []string{"cto"}, body.Session.Expanded)
	require.Equal(t, "LR", body.Chart.Direction)
	require.ElementsMatch(t, []string{"cto", "dev1", "dev2"}, body.Chart.ids())

	rec = do(t, r, http.MethodDelete, "/orgchart/api/sessions/s1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/orgchart/api/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "TB", decode[sessionBody](t, rec).Session.Direction)
}

func TestOrgChartAPIController_ManagerCycle(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: []employee.Record{
		{EmployeeID: "a"},
		{EmployeeID: "x", LineManagerID: "y"},
		{EmployeeID: "y", LineManagerID: "x"},
	}})

	rec := do(t, r, http.MethodPost, "/orgchart/api/sessions/s1/actions", `{"type":"navigateTo","employeeId":"x"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "ORGCHART_MANAGER_CYCLE", decode[apiErrorBody](t, rec).Code)
}

func TestOrgChartAPIController_SourceUnavailable(t *testing.T) {
	r := newTestRouter(t, stubEmployees{err: errors.New("dial tcp: connection refused")})

	for _, target := range []string{"/orgchart/api/chart", "/orgchart/api/employees", "/orgchart/api/sessions/s1"} {
		rec := do(t, r, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadGateway, rec.Code, target)
		body := decode[apiErrorBody](t, rec)
		require.Equal(t, "ORGCHART_SOURCE_UNAVAILABLE", body.Code)
		require.NotEmpty(t, body.Meta["request_id"])
	}

	rec := do(t, r, http.MethodPost, "/orgchart/api/refresh", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOrgChartAPIController_Refresh(t *testing.T) {
	r := newTestRouter(t, stubEmployees{records: testRecords()})

	rec := do(t, r, http.MethodPost, "/orgchart/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Generation uint64 `json:"generation"`
		Records    int    `json:"records"`
	}](t, rec)
	require.Equal(t, uint64(1), body.Generation)
	require.Equal(t, 6, body.Records)
}
