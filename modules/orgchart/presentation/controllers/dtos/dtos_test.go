package dtos

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func TestChartQueryFromURL(t *testing.T) {
	absent := ChartQueryFromURL(url.Values{"direction": {"lr"}})
	require.Nil(t, absent.Expanded)
	require.Equal(t, "LR", absent.Direction)
	_, ok := absent.Ok()
	require.True(t, ok)

	present := ChartQueryFromURL(url.Values{"expanded": {"a, b", "c"}, "department": {" Eng "}})
	require.Equal(t, []string{"a", "b", "c"}, present.Expanded)
	require.Equal(t, "Eng", present.ToRequest().Filter.Department)

	empty := ChartQueryFromURL(url.Values{"expanded": {""}})
	require.NotNil(t, empty.Expanded)
	require.Empty(t, empty.Expanded)

	bad := ChartQueryFromURL(url.Values{"direction": {"diagonal"}})
	errs, ok := bad.Ok()
	require.False(t, ok)
	require.Equal(t, "oneof", errs["Direction"])
}

func TestActionDTO(t *testing.T) {
	cases := []struct {
		name string
		dto  ActionDTO
		ok   bool
	}{
		{"toggle", ActionDTO{Type: "toggle", EmployeeID: "ceo"}, true},
		{"toggle without id", ActionDTO{Type: "toggle"}, false},
		{"navigate without id", ActionDTO{Type: "navigateTo"}, false},
		{"collapse", ActionDTO{Type: "collapseAll"}, true},
		{"unknown", ActionDTO{Type: "explode"}, false},
		{"missing type", ActionDTO{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := tc.dto.Ok()
			require.Equal(t, tc.ok, ok)
		})
	}

	action := ActionDTO{Type: "navigateTo", EmployeeID: " dev1 "}.ToAction()
	require.Equal(t, services.NavigateTo("dev1"), action)
}

func TestSearchQueryFromURL(t *testing.T) {
	dto, err := SearchQueryFromURL(url.Values{"q": {"ada"}})
	require.NoError(t, err)
	require.Equal(t, 20, dto.Limit)

	_, err = SearchQueryFromURL(url.Values{"q": {"ada"}, "limit": {"many"}})
	require.Error(t, err)

	dto, err = SearchQueryFromURL(url.Values{"limit": {"500"}})
	require.NoError(t, err)
	errs, ok := dto.Ok()
	require.False(t, ok)
	require.Contains(t, errs, "Query")
	require.Contains(t, errs, "Limit")
}

func TestSessionSettingsDTO(t *testing.T) {
	lr := "LR"
	dto := SessionSettingsDTO{Direction: &lr, Filter: &FilterDTO{ManagerID: "cto"}}
	_, ok := dto.Ok()
	require.True(t, ok)

	settings := dto.ToSettings()
	require.Equal(t, services.DirectionLR, *settings.Direction)
	require.Equal(t, "cto", settings.Filter.ManagerID)

	bad := "UP"
	_, ok = (&SessionSettingsDTO{Direction: &bad}).Ok()
	require.False(t, ok)
}
