package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

func intPtr(v int) *int { return &v }

func TestRootStrategies(t *testing.T) {
	records := []employee.Record{
		{EmployeeID: "1", LineManagerID: "2", LevelToCEO: intPtr(2), DirectReportsCount: 3, Title: "Sales Director"},
		{EmployeeID: "2", LineManagerID: "1", LevelToCEO: intPtr(1), DirectReportsCount: 5, PositionGroup: "VC"},
		{EmployeeID: "3", LineManagerID: "1", LevelToCEO: intPtr(1), DirectReportsCount: 5, Title: "President"},
		{EmployeeID: "4", LineManagerID: "", Title: "Directors' assistant"},
	}

	cases := []struct {
		strategy RootStrategy
		want     []string
	}{
		{NoManagerStrategy{}, []string{"4"}},
		{MinLevelStrategy{}, []string{"2", "3"}},
		{MaxReportsStrategy{}, []string{"2", "3"}},
		{KeywordMatchStrategy{}, []string{"2"}},
		{KeywordMatchStrategy{Keywords: []string{"director"}}, []string{"1"}},
		{KeywordMatchStrategy{Keywords: []string{"founder"}}, nil},
		{FirstNStrategy{}, []string{"1", "2", "3"}},
		{FirstNStrategy{N: 1}, []string{"1"}},
	}
	for _, tc := range cases {
		t.Run(tc.strategy.Name(), func(t *testing.T) {
			require.Equal(t, tc.want, tc.strategy.FindRoots(records))
		})
	}
}

func TestMaxReportsStrategy_RequiresReports(t *testing.T) {
	require.Nil(t, MaxReportsStrategy{}.FindRoots([]employee.Record{{EmployeeID: "1"}, {EmployeeID: "2"}}))
}

func TestMinLevelStrategy_IgnoresMissingLevels(t *testing.T) {
	require.Nil(t, MinLevelStrategy{}.FindRoots([]employee.Record{{EmployeeID: "1"}}))
	got := MinLevelStrategy{}.FindRoots([]employee.Record{{EmployeeID: "1"}, {EmployeeID: "2", LevelToCEO: intPtr(0)}})
	require.Equal(t, []string{"2"}, got)
}

func TestInferRoots_FallbackChainOrder(t *testing.T) {
	cycle := func(mutate func(a, b *employee.Record)) []employee.Record {
		a := employee.Record{EmployeeID: "a", LineManagerID: "b"}
		b := employee.Record{EmployeeID: "b", LineManagerID: "a"}
		mutate(&a, &b)
		return []employee.Record{a, b}
	}

	cases := []struct {
		name     string
		records  []employee.Record
		want     []string
		strategy string
	}{
		{
			name:     "unresolved manager wins",
			records:  []employee.Record{{EmployeeID: "a", LineManagerID: "zz"}, {EmployeeID: "b", LineManagerID: "a"}},
			want:     []string{"a"},
			strategy: StrategyUnresolvedManager,
		},
		{
			name:     "min level",
			records:  cycle(func(a, b *employee.Record) { a.LevelToCEO = intPtr(3); b.LevelToCEO = intPtr(1) }),
			want:     []string{"b"},
			strategy: "min-level",
		},
		{
			name:     "max reports",
			records:  cycle(func(a, b *employee.Record) { a.DirectReportsCount = 1; b.DirectReportsCount = 1 }),
			want:     []string{"a", "b"},
			strategy: "max-reports",
		},
		{
			name:     "keyword",
			records:  cycle(func(a, b *employee.Record) { b.PositionGroup = "Chairman of the board" }),
			want:     []string{"b"},
			strategy: "keyword",
		},
		{
			name:     "first n",
			records:  cycle(func(a, b *employee.Record) {}),
			want:     []string{"a", "b"},
			strategy: "first-n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InferRoots(tc.records)
			require.Equal(t, tc.want, got.IDs)
			require.Equal(t, tc.strategy, got.Strategy)
		})
	}
}

func TestInferRoots_Empty(t *testing.T) {
	require.Equal(t, RootInference{}, InferRoots(nil))
}

func TestRootInferrer_CustomKeywords(t *testing.T) {
	records := []employee.Record{
		{EmployeeID: "a", LineManagerID: "b", Title: "Founder"},
		{EmployeeID: "b", LineManagerID: "a", Title: "CEO"},
	}
	got := NewRootInferrer([]string{"FOUNDER"}).Infer(records)
	require.Equal(t, []string{"a"}, got.IDs)
}
