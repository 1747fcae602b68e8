package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
	"github.com/iota-uz/orgchart/pkg/layered"
	"github.com/iota-uz/orgchart/pkg/serrors"
)

var (
	ErrManagerCycle = serrors.NewError("ORGCHART_MANAGER_CYCLE", "manager chain contains a cycle", "OrgChart.Errors.ManagerCycle")
	ErrStaleRefresh = serrors.NewError("ORGCHART_STALE_REFRESH", "refresh superseded by a newer one", "")
	ErrInvalidInput = serrors.NewError("ORGCHART_INVALID_INPUT", "invalid input", "")
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// AsServiceError maps sentinel errors onto HTTP-facing service errors.
// Unknown errors become a 500.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return newServiceError(http.StatusNotFound, employee.ErrEmployeeNotFound.Code, "employee not found", err)
	case errors.Is(err, ErrManagerCycle):
		return newServiceError(http.StatusConflict, ErrManagerCycle.Code, "manager chain contains a cycle", err)
	case errors.Is(err, session.ErrSessionConflict):
		return newServiceError(http.StatusConflict, session.ErrSessionConflict.Code, "session changed concurrently, retry", err)
	case errors.Is(err, employee.ErrSourceUnavailable):
		return newServiceError(http.StatusBadGateway, employee.ErrSourceUnavailable.Code, "employee source unavailable", err)
	case errors.Is(err, ErrInvalidInput):
		return newServiceError(http.StatusBadRequest, ErrInvalidInput.Code, err.Error(), err)
	case errors.Is(err, layered.ErrUnknownNode), errors.Is(err, layered.ErrUnknownDirection):
		return newServiceError(http.StatusInternalServerError, "ORGCHART_LAYOUT_FAILED", "layout failed", err)
	default:
		return newServiceError(http.StatusInternalServerError, "ORGCHART_INTERNAL", "internal error", err)
	}
}
