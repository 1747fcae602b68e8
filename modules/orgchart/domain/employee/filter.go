package employee

import "strings"

// Filter narrows the record set before a chart is built. Zero fields match
// everything; string fields compare case-insensitively.
type Filter struct {
	BusinessFunction string `json:"businessFunction,omitempty"`
	Department       string `json:"department,omitempty"`
	PositionGroup    string `json:"positionGroup,omitempty"`
	// ManagerID keeps the manager and everyone reporting to them, directly
	// or transitively.
	ManagerID string `json:"managerId,omitempty"`
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.BusinessFunction) == "" &&
		strings.TrimSpace(f.Department) == "" &&
		strings.TrimSpace(f.PositionGroup) == "" &&
		strings.TrimSpace(f.ManagerID) == ""
}

// Match checks the attribute filters only; ManagerID needs the whole set.
func (f Filter) Match(r Record) bool {
	return matchField(f.BusinessFunction, r.BusinessFunction) &&
		matchField(f.Department, r.Department) &&
		matchField(f.PositionGroup, r.PositionGroup)
}

// Apply returns the matching records in input order.
func (f Filter) Apply(records []Record) []Record {
	if f.IsZero() {
		return records
	}
	var scope map[string]bool
	if id := strings.TrimSpace(f.ManagerID); id != "" {
		scope = Subtree(records, id)
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if scope != nil && !scope[r.EmployeeID] {
			continue
		}
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Subtree returns root and every id that reports to it through
// LineManagerID. Cycles are cut at the first revisit.
func Subtree(records []Record, root string) map[string]bool {
	reports := make(map[string][]string, len(records))
	for _, r := range records {
		if r.LineManagerID != "" && r.LineManagerID != r.EmployeeID {
			reports[r.LineManagerID] = append(reports[r.LineManagerID], r.EmployeeID)
		}
	}
	scope := map[string]bool{}
	queue := []string{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if scope[id] {
			continue
		}
		scope[id] = true
		queue = append(queue, reports[id]...)
	}
	return scope
}

func matchField(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
}
