package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/export"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/controllers/dtos"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/httpapi"
)

const maxBodyBytes = 1 << 20

type OrgChartAPIController struct {
	app       application.Application
	orgChart  *services.OrgChartService
	apiPrefix string
}

func NewOrgChartAPIController(app application.Application) application.Controller {
	return &OrgChartAPIController{
		app:       app,
		orgChart:  app.Service(services.OrgChartService{}).(*services.OrgChartService),
		apiPrefix: "/orgchart/api",
	}
}

func (c *OrgChartAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgChartAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/employees", instrumentAPI("employees.list", c.ListEmployees)).Methods(http.MethodGet)
	api.HandleFunc("/employees/search", instrumentAPI("employees.search", c.SearchEmployees)).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", instrumentAPI("employees.get", c.GetEmployee)).Methods(http.MethodGet)
	api.HandleFunc("/roots", instrumentAPI("roots", c.GetRoots)).Methods(http.MethodGet)
	api.HandleFunc("/chart", instrumentAPI("chart", c.GetChart)).Methods(http.MethodGet)
	api.HandleFunc("/chart.xlsx", instrumentAPI("chart.xlsx", c.ExportChart)).Methods(http.MethodGet)
	api.HandleFunc("/quality", instrumentAPI("quality", c.GetQuality)).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{session}", instrumentAPI("sessions.get", c.GetSession)).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{session}", instrumentAPI("sessions.delete", c.DeleteSession)).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{session}/actions", instrumentAPI("sessions.action", c.ApplyAction)).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{session}/settings", instrumentAPI("sessions.settings", c.ConfigureSession)).Methods(http.MethodPut)

	api.HandleFunc("/refresh", instrumentAPI("refresh", c.Refresh)).Methods(http.MethodPost)
}

func (c *OrgChartAPIController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	records, err := c.orgChart.ListEmployees(r.Context(), dtos.FilterFromQuery(r.URL.Query()).ToFilter())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type employeesResponse struct {
		Total     int               `json:"total"`
		Employees []employee.Record `json:"employees"`
	}
	writeJSON(w, http.StatusOK, employeesResponse{Total: len(records), Employees: records})
}

func (c *OrgChartAPIController) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	dto, err := dtos.SearchQueryFromURL(r.URL.Query())
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORGCHART_INVALID_QUERY", "limit is invalid")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, requestID, errs)
		return
	}

	results, err := c.orgChart.Search(r.Context(), dto.Query, dto.Limit)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if results == nil {
		results = []services.SearchResult{}
	}

	type searchResponse struct {
		Query   string                  `json:"query"`
		Results []services.SearchResult `json:"results"`
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: dto.Query, Results: results})
}

func (c *OrgChartAPIController) GetEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	rec, err := c.orgChart.GetEmployee(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *OrgChartAPIController) GetRoots(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	roots, err := c.orgChart.Roots(r.Context(), dtos.FilterFromQuery(r.URL.Query()).ToFilter())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if roots.IDs == nil {
		roots.IDs = []string{}
	}
	writeJSON(w, http.StatusOK, roots)
}

func (c *OrgChartAPIController) chart(w http.ResponseWriter, r *http.Request, requestID string) (services.Chart, bool) {
	dto := dtos.ChartQueryFromURL(r.URL.Query())
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, requestID, errs)
		return services.Chart{}, false
	}
	chart, err := c.orgChart.Chart(r.Context(), dto.ToRequest())
	if err != nil {
		writeServiceError(w, requestID, err)
		return services.Chart{}, false
	}
	return chart, true
}

func (c *OrgChartAPIController) GetChart(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	chart, ok := c.chart(w, r, requestID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (c *OrgChartAPIController) ExportChart(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	chart, ok := c.chart(w, r, requestID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteChartXLSX(&buf, chart); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("chart export failed")
		writeAPIError(w, http.StatusInternalServerError, requestID, "ORGCHART_EXPORT_FAILED", "chart export failed")
		return
	}
	filename := "orgchart-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (c *OrgChartAPIController) GetQuality(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	report, err := c.orgChart.CheckQuality(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type sessionResponse struct {
	Session *session.Session `json:"session"`
	Chart   services.Chart   `json:"chart"`
}

func (c *OrgChartAPIController) writeSession(w http.ResponseWriter, r *http.Request, requestID, id string) {
	chart, sess, err := c.orgChart.SessionChart(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Chart: chart})
}

func (c *OrgChartAPIController) GetSession(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := sessionID(w, r, requestID)
	if !ok {
		return
	}
	c.writeSession(w, r, requestID, id)
}

func (c *OrgChartAPIController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := sessionID(w, r, requestID)
	if !ok {
		return
	}
	if err := c.orgChart.DeleteSession(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgChartAPIController) ApplyAction(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := sessionID(w, r, requestID)
	if !ok {
		return
	}
	var dto dtos.ActionDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORGCHART_INVALID_BODY", "invalid json body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, requestID, errs)
		return
	}
	if _, err := c.orgChart.ApplyAction(r.Context(), id, dto.ToAction()); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	c.writeSession(w, r, requestID, id)
}

func (c *OrgChartAPIController) ConfigureSession(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := sessionID(w, r, requestID)
	if !ok {
		return
	}
	var dto dtos.SessionSettingsDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORGCHART_INVALID_BODY", "invalid json body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, requestID, errs)
		return
	}
	if _, err := c.orgChart.ConfigureSession(r.Context(), id, dto.ToSettings()); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	c.writeSession(w, r, requestID, id)
}

func (c *OrgChartAPIController) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	snap, err := c.orgChart.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type refreshResponse struct {
		Generation uint64                 `json:"generation"`
		Records    int                    `json:"records"`
		Roots      services.RootInference `json:"roots"`
		LoadedAt   string                 `json:"loaded_at"`
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Generation: snap.Generation,
		Records:    snap.Hierarchy.Len(),
		Roots:      snap.Hierarchy.Roots(),
		LoadedAt:   snap.LoadedAt.UTC().Format(time.RFC3339),
	})
}

func sessionID(w http.ResponseWriter, r *http.Request, requestID string) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["session"])
	if id == "" || len(id) > 128 {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORGCHART_INVALID_SESSION", "session id is invalid")
		return "", false
	}
	return id, true
}

func ensureRequestID(r *http.Request) string {
	if v := composables.UseRequestID(r.Context()); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get("X-Request-Id")); v != "" {
		return v
	}
	return uuid.NewString()
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	svcErr := services.AsServiceError(err)
	writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
}

func writeValidationError(w http.ResponseWriter, requestID string, errs map[string]string) {
	meta := httpapi.RequestMeta(requestID)
	for field, tag := range errs {
		meta[field] = tag
	}
	_ = httpapi.WriteError(w, http.StatusBadRequest, "ORGCHART_VALIDATION_FAILED", "validation failed", meta)
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, code, message, httpapi.RequestMeta(requestID))
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
