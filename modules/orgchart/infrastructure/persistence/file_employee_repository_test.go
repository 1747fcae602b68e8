package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileEmployeeRepository_JSONArray(t *testing.T) {
	path := writeFile(t, "employees.json", `[
		{"employeeId": 1, "name": "Ada", "title": "CEO"},
		{"id": "2", "fullName": "Grace", "jobTitle": "CTO", "managerId": 1, "directReportsCount": "3"}
	]`)

	recs, err := NewFileEmployeeRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "1", recs[0].EmployeeID)
	require.Equal(t, "Grace", recs[1].Name)
	require.Equal(t, "CTO", recs[1].Title)
	require.Equal(t, "1", recs[1].LineManagerID)
	require.Equal(t, 3, recs[1].DirectReportsCount)
}

func TestFileEmployeeRepository_JSONEnvelope(t *testing.T) {
	path := writeFile(t, "employees.json", `{"data": [{"employeeId": "a", "name": "Vacant"}]}`)

	recs, err := NewFileEmployeeRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].IsVacant)
}

func TestFileEmployeeRepository_YAML(t *testing.T) {
	path := writeFile(t, "employees.yaml", `
employees:
  - employeeId: ceo
    name: Ada
  - employeeId: cto
    name: Grace
    parentId: ceo
    isVacant: yes
`)

	recs, err := NewFileEmployeeRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "ceo", recs[1].LineManagerID)
	require.True(t, recs[1].IsVacant)
}

func TestFileEmployeeRepository_CSV(t *testing.T) {
	path := writeFile(t, "employees.csv", "\xEF\xBB\xBFemployeeId,name,title,lineManagerId,levelToCeo,isVacant,tags\n"+
		"ceo,Ada,CEO,,0,false,exec;board\n"+
		"cto,Grace,CTO,ceo,1,,\n")

	recs, err := NewFileEmployeeRepository(path).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "ceo", recs[0].EmployeeID)
	require.Equal(t, []string{"exec", "board"}, recs[0].Tags)
	require.NotNil(t, recs[0].LevelToCEO)
	require.Equal(t, 0, *recs[0].LevelToCEO)
	require.Equal(t, "ceo", recs[1].LineManagerID)
	require.False(t, recs[1].IsVacant)
}

func TestFileEmployeeRepository_CSVErrors(t *testing.T) {
	t.Run("missing id column", func(t *testing.T) {
		path := writeFile(t, "employees.csv", "name,title\nAda,CEO\n")
		_, err := NewFileEmployeeRepository(path).GetAll(context.Background())
		require.ErrorContains(t, err, "employeeId")
	})
	t.Run("bad integer", func(t *testing.T) {
		path := writeFile(t, "employees.csv", "employeeId,levelToCeo\nceo,top\n")
		_, err := NewFileEmployeeRepository(path).GetAll(context.Background())
		require.ErrorContains(t, err, "line 2")
	})
	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "employees.csv", "")
		_, err := NewFileEmployeeRepository(path).GetAll(context.Background())
		require.ErrorContains(t, err, "missing header")
	})
}

func TestFileEmployeeRepository_UnsupportedAndMissing(t *testing.T) {
	_, err := NewFileEmployeeRepository(writeFile(t, "employees.txt", "x")).GetAll(context.Background())
	require.ErrorContains(t, err, "unsupported")

	_, err = NewFileEmployeeRepository(filepath.Join(t.TempDir(), "nope.json")).GetAll(context.Background())
	require.Error(t, err)
}
