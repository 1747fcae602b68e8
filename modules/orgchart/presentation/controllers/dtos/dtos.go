package dtos

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationErrors flattens validator output to field -> failed tag.
func validationErrors(err error) (map[string]string, bool) {
	out := map[string]string{}
	if err == nil {
		return out, true
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out, false
	}
	for _, e := range verrs {
		out[e.Field()] = e.Tag()
	}
	return out, false
}

type FilterDTO struct {
	BusinessFunction string `json:"businessFunction" validate:"max=255"`
	Department       string `json:"department" validate:"max=255"`
	PositionGroup    string `json:"positionGroup" validate:"max=255"`
	ManagerID        string `json:"managerId" validate:"max=64"`
}

func FilterFromQuery(q url.Values) FilterDTO {
	return FilterDTO{
		BusinessFunction: strings.TrimSpace(q.Get("businessFunction")),
		Department:       strings.TrimSpace(q.Get("department")),
		PositionGroup:    strings.TrimSpace(q.Get("positionGroup")),
		ManagerID:        strings.TrimSpace(q.Get("managerId")),
	}
}

func (d FilterDTO) ToFilter() employee.Filter {
	return employee.Filter{
		BusinessFunction: strings.TrimSpace(d.BusinessFunction),
		Department:       strings.TrimSpace(d.Department),
		PositionGroup:    strings.TrimSpace(d.PositionGroup),
		ManagerID:        strings.TrimSpace(d.ManagerID),
	}
}

// ChartQueryDTO is the query string of GET /chart. Expanded is nil when
// the parameter is absent, which asks for the initial view.
type ChartQueryDTO struct {
	Direction string   `validate:"omitempty,oneof=TB LR"`
	Expanded  []string `validate:"omitempty,dive,required,max=64"`
	Filter    FilterDTO
}

func ChartQueryFromURL(q url.Values) ChartQueryDTO {
	dto := ChartQueryDTO{
		Direction: strings.ToUpper(strings.TrimSpace(q.Get("direction"))),
		Filter:    FilterFromQuery(q),
	}
	if values, ok := q["expanded"]; ok {
		dto.Expanded = []string{}
		for _, v := range values {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					dto.Expanded = append(dto.Expanded, id)
				}
			}
		}
	}
	return dto
}

func (d *ChartQueryDTO) Ok() (map[string]string, bool) {
	return validationErrors(validate.Struct(d))
}

func (d ChartQueryDTO) ToRequest() services.ChartRequest {
	return services.ChartRequest{
		Filter:    d.Filter.ToFilter(),
		Expanded:  d.Expanded,
		Direction: services.Direction(d.Direction),
	}
}

type SearchQueryDTO struct {
	Query string `validate:"required,max=255"`
	Limit int    `validate:"gte=0,lte=100"`
}

func SearchQueryFromURL(q url.Values) (SearchQueryDTO, error) {
	dto := SearchQueryDTO{Query: strings.TrimSpace(q.Get("q")), Limit: 20}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return dto, err
		}
		dto.Limit = n
	}
	return dto, nil
}

func (d *SearchQueryDTO) Ok() (map[string]string, bool) {
	return validationErrors(validate.Struct(d))
}

type ActionDTO struct {
	Type       string `json:"type" validate:"required,oneof=toggle expandAll collapseAll navigateTo initialize"`
	EmployeeID string `json:"employeeId" validate:"required_if=Type toggle,required_if=Type navigateTo,max=64"`
}

func (d *ActionDTO) Ok() (map[string]string, bool) {
	return validationErrors(validate.Struct(d))
}

func (d ActionDTO) ToAction() services.Action {
	return services.Action{
		Type:       services.ActionType(d.Type),
		EmployeeID: strings.TrimSpace(d.EmployeeID),
	}
}

type SessionSettingsDTO struct {
	Direction *string    `json:"direction" validate:"omitempty,oneof=TB LR"`
	Filter    *FilterDTO `json:"filter"`
}

func (d *SessionSettingsDTO) Ok() (map[string]string, bool) {
	return validationErrors(validate.Struct(d))
}

func (d SessionSettingsDTO) ToSettings() services.SessionSettings {
	var out services.SessionSettings
	if d.Direction != nil {
		dir := services.Direction(*d.Direction)
		out.Direction = &dir
	}
	if d.Filter != nil {
		f := d.Filter.ToFilter()
		out.Filter = &f
	}
	return out
}
