package persistence

import (
	"context"
	_ "embed"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

//go:embed schema/orgchart-schema.sql
var SchemaSQL string

const selectEmployeesSQL = `
SELECT
	employee_id,
	name,
	title,
	department,
	unit,
	business_function,
	position_group,
	direct_reports_count,
	COALESCE(line_manager_id, ''),
	level_to_ceo,
	is_vacant,
	email,
	phone,
	avatar_url,
	status_color,
	grading,
	tags
FROM orgchart_employees
ORDER BY sort_order, employee_id`

const upsertEmployeeSQL = `
INSERT INTO orgchart_employees (
	employee_id, name, title, department, unit, business_function, position_group,
	direct_reports_count, line_manager_id, level_to_ceo, is_vacant,
	email, phone, avatar_url, status_color, grading, tags, sort_order
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (employee_id) DO UPDATE SET
	name = EXCLUDED.name,
	title = EXCLUDED.title,
	department = EXCLUDED.department,
	unit = EXCLUDED.unit,
	business_function = EXCLUDED.business_function,
	position_group = EXCLUDED.position_group,
	direct_reports_count = EXCLUDED.direct_reports_count,
	line_manager_id = EXCLUDED.line_manager_id,
	level_to_ceo = EXCLUDED.level_to_ceo,
	is_vacant = EXCLUDED.is_vacant,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	avatar_url = EXCLUDED.avatar_url,
	status_color = EXCLUDED.status_color,
	grading = EXCLUDED.grading,
	tags = EXCLUDED.tags,
	sort_order = EXCLUDED.sort_order`

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgEmployeeRepository struct {
	db Querier
}

func NewPgEmployeeRepository(db Querier) *PgEmployeeRepository {
	return &PgEmployeeRepository{db: db}
}

// EnsureSchema creates the employee table when it does not exist.
func (r *PgEmployeeRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, SchemaSQL); err != nil {
		return errors.Wrap(err, "create orgchart schema")
	}
	return nil
}

func (r *PgEmployeeRepository) GetAll(ctx context.Context) ([]employee.Record, error) {
	rows, err := r.db.Query(ctx, selectEmployeesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query employees")
	}
	defer rows.Close()

	out := make([]employee.Record, 0, 64)
	for rows.Next() {
		var rec employee.Record
		if err := rows.Scan(
			&rec.EmployeeID,
			&rec.Name,
			&rec.Title,
			&rec.Department,
			&rec.Unit,
			&rec.BusinessFunction,
			&rec.PositionGroup,
			&rec.DirectReportsCount,
			&rec.LineManagerID,
			&rec.LevelToCEO,
			&rec.IsVacant,
			&rec.Email,
			&rec.Phone,
			&rec.AvatarURL,
			&rec.StatusColor,
			&rec.Grading,
			&rec.Tags,
		); err != nil {
			return nil, errors.Wrap(err, "scan employee")
		}
		if n := employee.Normalize(rec.Raw()); n != nil {
			out = append(out, *n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate employees")
	}
	return out, nil
}

// Upsert writes records in order; the slice index becomes the sort order.
func (r *PgEmployeeRepository) Upsert(ctx context.Context, records []employee.Record) error {
	for i, rec := range records {
		tags := rec.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := r.db.Exec(ctx, upsertEmployeeSQL,
			rec.EmployeeID,
			rec.Name,
			rec.Title,
			rec.Department,
			rec.Unit,
			rec.BusinessFunction,
			rec.PositionGroup,
			rec.DirectReportsCount,
			rec.LineManagerID,
			rec.LevelToCEO,
			rec.IsVacant,
			rec.Email,
			rec.Phone,
			rec.AvatarURL,
			rec.StatusColor,
			rec.Grading,
			tags,
			i,
		); err != nil {
			return errors.Wrapf(err, "upsert employee %s", rec.EmployeeID)
		}
	}
	return nil
}
