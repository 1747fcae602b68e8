package employee

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{EmployeeID: "1", Name: "Ana", BusinessFunction: "Ops", Department: "HQ"},
		{EmployeeID: "2", Name: "Ben", LineManagerID: "1", BusinessFunction: "Ops", Department: "Sales", PositionGroup: "Manager"},
		{EmployeeID: "3", Name: "Cleo", LineManagerID: "2", BusinessFunction: "ops", Department: "Sales"},
		{EmployeeID: "4", Name: "Dan", LineManagerID: "1", BusinessFunction: "Tech", Department: "IT"},
		{EmployeeID: "5", Name: "Eve", LineManagerID: "3", BusinessFunction: "Ops", Department: "Sales"},
	}
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.EmployeeID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	records := sampleRecords()
	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "zero keeps all", filter: Filter{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "business function ignores case", filter: Filter{BusinessFunction: "OPS"}, want: []string{"1", "2", "3", "5"}},
		{name: "department", filter: Filter{Department: " sales "}, want: []string{"2", "3", "5"}},
		{name: "position group", filter: Filter{PositionGroup: "manager"}, want: []string{"2"}},
		{name: "manager subtree", filter: Filter{ManagerID: "2"}, want: []string{"2", "3", "5"}},
		{name: "manager and department", filter: Filter{ManagerID: "1", Department: "IT"}, want: []string{"4"}},
		{name: "unknown manager", filter: Filter{ManagerID: "404"}, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ids(tc.filter.Apply(records)))
		})
	}
}

func TestSubtree_StopsOnCycles(t *testing.T) {
	records := []Record{
		{EmployeeID: "a", LineManagerID: "b"},
		{EmployeeID: "b", LineManagerID: "a"},
		{EmployeeID: "c", LineManagerID: "c"},
	}
	require.Equal(t, map[string]bool{"a": true, "b": true}, Subtree(records, "a"))
	require.Equal(t, map[string]bool{"c": true}, Subtree(records, "c"))
}
