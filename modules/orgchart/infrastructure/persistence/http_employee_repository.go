package persistence

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

const defaultMaxResponseBytes int64 = 32 << 20

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func (e *apiError) Error() string {
	return e.Message + " (" + e.Code + ")"
}

type HTTPEmployeeRepositoryOptions struct {
	BaseURL         string
	Path            string
	Token           string
	Timeout         time.Duration
	RequestIDHeader string
	Client          *http.Client
	// MaxResponseBytes caps the body read from the API. Zero means 32 MiB.
	MaxResponseBytes int64
}

// HTTPEmployeeRepository pulls the employee list from an HR API.
type HTTPEmployeeRepository struct {
	endpoint        *url.URL
	authorization   string
	httpClient      *http.Client
	requestIDHeader string
	maxBody         int64
}

func NewHTTPEmployeeRepository(opts HTTPEmployeeRepositoryOptions) (*HTTPEmployeeRepository, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid employee API url: %q", opts.BaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(opts.Path, "/")

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	authorization := strings.TrimSpace(opts.Token)
	if authorization != "" && !strings.Contains(authorization, " ") {
		authorization = "Bearer " + authorization
	}
	maxBody := opts.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}
	return &HTTPEmployeeRepository{
		endpoint:        u,
		authorization:   authorization,
		httpClient:      client,
		requestIDHeader: opts.RequestIDHeader,
		maxBody:         maxBody,
	}, nil
}

func (r *HTTPEmployeeRepository) GetAll(ctx context.Context) ([]employee.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if r.requestIDHeader != "" {
		req.Header.Set(r.requestIDHeader, uuid.NewString())
	}
	if r.authorization != "" {
		req.Header.Set("Authorization", r.authorization)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "http read")
	}
	if int64(len(body)) > r.maxBody {
		return nil, errors.Errorf("http status=%d: response body exceeds %d bytes", resp.StatusCode, r.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && strings.TrimSpace(apiErr.Code) != "" {
			return nil, errors.Wrapf(&apiErr, "http status=%d", resp.StatusCode)
		}
		return nil, errors.Errorf("http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return decodeJSONEmployees(body)
}
