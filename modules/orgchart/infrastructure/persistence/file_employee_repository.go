package persistence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// FileEmployeeRepository reads employees from a JSON, YAML or CSV file. The
// file is re-read on every call so edits show up on the next refresh.
type FileEmployeeRepository struct {
	path string
}

func NewFileEmployeeRepository(path string) *FileEmployeeRepository {
	return &FileEmployeeRepository{path: path}
}

func (r *FileEmployeeRepository) GetAll(ctx context.Context) ([]employee.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".json":
		body, err := os.ReadFile(r.path)
		if err != nil {
			return nil, errors.Wrap(err, "read employee file")
		}
		return decodeJSONEmployees(body)
	case ".yaml", ".yml":
		body, err := os.ReadFile(r.path)
		if err != nil {
			return nil, errors.Wrap(err, "read employee file")
		}
		return decodeYAMLEmployees(body)
	case ".csv":
		return r.readCSV()
	default:
		return nil, errors.Errorf("unsupported employee file type: %s", r.path)
	}
}

func decodeYAMLEmployees(body []byte) ([]employee.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []employee.Record{}, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(body, &node); err != nil {
		return nil, errors.Wrap(err, "decode employee yaml")
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var raws []*employee.RawEmployee
		if err := node.Decode(&raws); err != nil {
			return nil, errors.Wrap(err, "decode employee list")
		}
		return employee.NormalizeAll(raws), nil
	}
	var env envelope
	if err := node.Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode employee envelope")
	}
	return employee.NormalizeAll(env.records()), nil
}

// csvColumns maps accepted header names onto raw fields.
var csvColumns = map[string]func(raw *employee.RawEmployee, v string) error{
	"employeeId":       func(raw *employee.RawEmployee, v string) error { raw.EmployeeID = employee.FlexString(v); return nil },
	"id":               func(raw *employee.RawEmployee, v string) error { raw.ID = employee.FlexString(v); return nil },
	"name":             func(raw *employee.RawEmployee, v string) error { raw.Name = v; return nil },
	"fullName":         func(raw *employee.RawEmployee, v string) error { raw.FullName = v; return nil },
	"title":            func(raw *employee.RawEmployee, v string) error { raw.Title = v; return nil },
	"jobTitle":         func(raw *employee.RawEmployee, v string) error { raw.JobTitle = v; return nil },
	"department":       func(raw *employee.RawEmployee, v string) error { raw.Department = v; return nil },
	"unit":             func(raw *employee.RawEmployee, v string) error { raw.Unit = v; return nil },
	"businessFunction": func(raw *employee.RawEmployee, v string) error { raw.BusinessFunction = v; return nil },
	"positionGroup":    func(raw *employee.RawEmployee, v string) error { raw.PositionGroup = v; return nil },
	"lineManagerId": func(raw *employee.RawEmployee, v string) error {
		raw.LineManagerID = employee.FlexString(v)
		return nil
	},
	"managerId":   func(raw *employee.RawEmployee, v string) error { raw.ManagerID = employee.FlexString(v); return nil },
	"parentId":    func(raw *employee.RawEmployee, v string) error { raw.ParentID = employee.FlexString(v); return nil },
	"email":       func(raw *employee.RawEmployee, v string) error { raw.Email = v; return nil },
	"phone":       func(raw *employee.RawEmployee, v string) error { raw.Phone = v; return nil },
	"avatarUrl":   func(raw *employee.RawEmployee, v string) error { raw.AvatarURL = v; return nil },
	"statusColor": func(raw *employee.RawEmployee, v string) error { raw.StatusColor = v; return nil },
	"grading":     func(raw *employee.RawEmployee, v string) error { raw.Grading = v; return nil },
	"tags": func(raw *employee.RawEmployee, v string) error {
		raw.Tags = strings.Split(v, ";")
		return nil
	},
	"directReportsCount": func(raw *employee.RawEmployee, v string) error {
		n, err := parseOptionalInt(v)
		if n != nil {
			c := employee.FlexInt(*n)
			raw.DirectReportsCount = &c
		}
		return err
	},
	"levelToCeo": func(raw *employee.RawEmployee, v string) error {
		n, err := parseOptionalInt(v)
		if n != nil {
			l := employee.FlexInt(*n)
			raw.LevelToCEO = &l
		}
		return err
	},
	"isVacant": func(raw *employee.RawEmployee, v string) error {
		var b employee.FlexBool
		if err := b.UnmarshalJSON([]byte(strconv.Quote(v))); err != nil {
			return err
		}
		raw.IsVacant = &b
		return nil
	},
}

func parseOptionalInt(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.Errorf("invalid integer %q", v)
	}
	return &n, nil
}

func (r *FileEmployeeRepository) readCSV() ([]employee.Record, error) {
	reader, closeFn, err := openCSV(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "open employee csv")
	}
	defer func() { _ = closeFn() }()

	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)
	if _, ok := idx["employeeId"]; !ok {
		if _, ok := idx["id"]; !ok {
			return nil, errors.New("missing required header column: employeeId")
		}
	}

	var raws []*employee.RawEmployee
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		raw := &employee.RawEmployee{}
		for name, i := range idx {
			set, ok := csvColumns[name]
			if !ok || i >= len(row) {
				continue
			}
			if err := set(raw, strings.TrimSpace(row[i])); err != nil {
				return nil, errors.Wrapf(err, "line %d column %s", line, name)
			}
		}
		raws = append(raws, raw)
	}
	return employee.NormalizeAll(raws), nil
}

func openCSV(path string) (*csv.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := stripUTF8BOM(bufio.NewReader(f))

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	return r, f.Close, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("missing header")
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(h[i]) {
			return nil, errors.New("invalid header encoding")
		}
	}
	return h, nil
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		m[name] = i
	}
	return m
}
