package employee

import (
	"context"

	"github.com/iota-uz/orgchart/pkg/serrors"
)

var (
	ErrEmployeeNotFound  = serrors.NewError("ORGCHART_EMPLOYEE_NOT_FOUND", "employee not found", "OrgChart.Errors.EmployeeNotFound")
	ErrSourceUnavailable = serrors.NewError("ORGCHART_SOURCE_UNAVAILABLE", "employee source unavailable", "OrgChart.Errors.SourceUnavailable")
)

// Repository supplies the employee list. Implementations normalize what
// they read; order is the source's order.
type Repository interface {
	GetAll(ctx context.Context) ([]Record, error)
}
