package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

func TestSearchEmployees(t *testing.T) {
	records := []employee.Record{
		{EmployeeID: "ada", Name: "Zed"},
		{EmployeeID: "x1", Name: "Ada Lovelace", Title: "Engineer"},
		{EmployeeID: "x2", Name: "Grace Hopper", Title: "CFO"},
	}

	hits := SearchEmployees(records, "ada", 0)
	require.Len(t, hits, 2)
	require.Equal(t, "ada", hits[0].Employee.EmployeeID)
	require.Equal(t, "employeeId", hits[0].Field)
	require.Equal(t, -1, hits[0].Distance)
	require.Equal(t, "x1", hits[1].Employee.EmployeeID)
	require.Equal(t, "name", hits[1].Field)

	limited := SearchEmployees(records, "ada", 1)
	require.Len(t, limited, 1)

	byTitle := SearchEmployees(records, "cfo", 0)
	require.Len(t, byTitle, 1)
	require.Equal(t, "title", byTitle[0].Field)
	require.Equal(t, 0, byTitle[0].Distance)

	require.Empty(t, SearchEmployees(records, "zzz", 0))
	require.Nil(t, SearchEmployees(records, "  ", 0))
}
