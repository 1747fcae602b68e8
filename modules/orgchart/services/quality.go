package services

import (
	"fmt"
	"strings"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

type IssueKind string

const (
	IssueMissingID         IssueKind = "missing-id"
	IssueDuplicateID       IssueKind = "duplicate-id"
	IssueSelfManager       IssueKind = "self-manager"
	IssueUnresolvedManager IssueKind = "unresolved-manager"
	IssueManagerCycle      IssueKind = "manager-cycle"
)

type QualityIssue struct {
	Kind       IssueKind `json:"kind"`
	EmployeeID string    `json:"employeeId,omitempty"`
	Detail     string    `json:"detail"`
}

type QualityReport struct {
	Records     int            `json:"records"`
	Unique      int            `json:"unique"`
	Roots       RootInference  `json:"roots"`
	Unreachable []string       `json:"unreachable"`
	Issues      []QualityIssue `json:"issues"`
}

func (r QualityReport) OK() bool { return len(r.Issues) == 0 }

// CheckQuality reports data problems that change how the chart is drawn.
// It never fails; an empty input gives an empty report.
func CheckQuality(records []employee.Record) QualityReport {
	report := QualityReport{Records: len(records), Issues: []QualityIssue{}, Unreachable: []string{}}

	seen := map[string]int{}
	for i, r := range records {
		if r.EmployeeID == "" {
			report.Issues = append(report.Issues, QualityIssue{
				Kind:   IssueMissingID,
				Detail: fmt.Sprintf("record #%d (%q) has no employee id and is skipped", i, r.Name),
			})
			continue
		}
		seen[r.EmployeeID]++
		if seen[r.EmployeeID] == 2 {
			report.Issues = append(report.Issues, QualityIssue{
				Kind:       IssueDuplicateID,
				EmployeeID: r.EmployeeID,
				Detail:     "employee id appears more than once; the last record wins",
			})
		}
	}

	h := NewHierarchy(records, nil)
	report.Unique = h.Len()
	report.Roots = h.Roots()
	if u := h.Unreachable(); len(u) > 0 {
		report.Unreachable = u
	}

	for _, n := range h.nodes {
		r := n.record
		switch {
		case r.LineManagerID == "":
		case r.LineManagerID == r.EmployeeID:
			report.Issues = append(report.Issues, QualityIssue{
				Kind:       IssueSelfManager,
				EmployeeID: r.EmployeeID,
				Detail:     "employee is their own manager and is shown as a root",
			})
		case !h.Has(r.LineManagerID):
			report.Issues = append(report.Issues, QualityIssue{
				Kind:       IssueUnresolvedManager,
				EmployeeID: r.EmployeeID,
				Detail:     fmt.Sprintf("manager %q not found; employee is shown as a root", r.LineManagerID),
			})
		}
	}

	for _, cycle := range h.cycles() {
		report.Issues = append(report.Issues, QualityIssue{
			Kind:       IssueManagerCycle,
			EmployeeID: cycle[0],
			Detail:     strings.Join(append(cycle, cycle[0]), " -> "),
		})
	}
	return report
}

// cycles returns each manager cycle once, starting from its member that
// comes first in input order.
func (h *Hierarchy) cycles() [][]string {
	const (
		unvisited = 0
		onPath    = 1
		done      = 2
	)
	state := make([]int, len(h.nodes))
	var out [][]string
	for i := range h.nodes {
		if state[i] != unvisited {
			continue
		}
		var path []int
		v := i
		for v >= 0 && state[v] == unvisited {
			state[v] = onPath
			path = append(path, v)
			v = h.nodes[v].parent
		}
		if v >= 0 && state[v] == onPath {
			start := 0
			for path[start] != v {
				start++
			}
			members := path[start:]
			first := 0
			for k, m := range members {
				if m < members[first] {
					first = k
				}
			}
			ordered := make([]string, 0, len(members))
			for k := range members {
				ordered = append(ordered, h.nodes[members[(first+k)%len(members)]].record.EmployeeID)
			}
			out = append(out, ordered)
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return out
}
