package persistence

import (
	"bytes"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// envelope covers the wrappers HR APIs put around employee lists.
type envelope struct {
	Data      []*employee.RawEmployee `json:"data" yaml:"data"`
	Employees []*employee.RawEmployee `json:"employees" yaml:"employees"`
	Items     []*employee.RawEmployee `json:"items" yaml:"items"`
}

func (e envelope) records() []*employee.RawEmployee {
	switch {
	case e.Data != nil:
		return e.Data
	case e.Employees != nil:
		return e.Employees
	default:
		return e.Items
	}
}

// decodeJSONEmployees accepts a bare array or an object envelope.
func decodeJSONEmployees(body []byte) ([]employee.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []employee.Record{}, nil
	}
	if body[0] == '[' {
		var raws []*employee.RawEmployee
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, errors.Wrap(err, "decode employee array")
		}
		return employee.NormalizeAll(raws), nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode employee envelope")
	}
	return employee.NormalizeAll(env.records()), nil
}
