package services

import (
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

const (
	EdgeColorVacant = "#ef4444"
	EdgeColorFilled = "#3b82f6"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RenderNode struct {
	ID          string          `json:"id"`
	Employee    employee.Record `json:"employee"`
	IsExpanded  bool            `json:"isExpanded"`
	HasChildren bool            `json:"hasChildren"`
	ChildCount  int             `json:"childCount"`
	Position    Position        `json:"position"`
	Width       float64         `json:"width"`
	Height      float64         `json:"height"`
}

type EdgeStyle struct {
	Dashed bool   `json:"dashed"`
	Color  string `json:"color"`
}

type RenderEdge struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source"`
	TargetID string    `json:"target"`
	Style    EdgeStyle `json:"style"`
}

// Chart is the visible part of a hierarchy, ready for layout.
type Chart struct {
	Nodes        []RenderNode `json:"nodes"`
	Edges        []RenderEdge `json:"edges"`
	Roots        []string     `json:"roots"`
	RootStrategy string       `json:"rootStrategy,omitempty"`
	Direction    Direction    `json:"direction,omitempty"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
}

type hierarchyNode struct {
	record   employee.Record
	parent   int
	children []int
}

// Hierarchy is an arena of employees linked by index. Each employee has
// at most one parent: the manager it resolves to.
type Hierarchy struct {
	nodes []hierarchyNode
	index map[string]int
	roots RootInference
}

// uniqueRecords drops records without an id and collapses duplicates: the
// last record's data is kept at the first record's position.
func uniqueRecords(records []employee.Record) []employee.Record {
	pos := make(map[string]int, len(records))
	out := make([]employee.Record, 0, len(records))
	for _, r := range records {
		if r.EmployeeID == "" {
			continue
		}
		if i, ok := pos[r.EmployeeID]; ok {
			out[i] = r
			continue
		}
		pos[r.EmployeeID] = len(out)
		out = append(out, r)
	}
	return out
}

// NewHierarchy links records to their managers. A nil inferrer uses the
// default chain.
func NewHierarchy(records []employee.Record, inferrer *RootInferrer) *Hierarchy {
	if inferrer == nil {
		inferrer = defaultInferrer
	}
	unique := uniqueRecords(records)
	h := &Hierarchy{
		nodes: make([]hierarchyNode, len(unique)),
		index: make(map[string]int, len(unique)),
	}
	for i, r := range unique {
		h.nodes[i] = hierarchyNode{record: r, parent: -1}
		h.index[r.EmployeeID] = i
	}
	for i, r := range unique {
		m, ok := h.index[r.LineManagerID]
		if !ok || m == i {
			continue
		}
		h.nodes[i].parent = m
		h.nodes[m].children = append(h.nodes[m].children, i)
	}
	h.roots = inferrer.infer(unique)
	return h
}

func (h *Hierarchy) Len() int { return len(h.nodes) }

func (h *Hierarchy) Has(id string) bool {
	_, ok := h.index[id]
	return ok
}

func (h *Hierarchy) Record(id string) (employee.Record, bool) {
	i, ok := h.index[id]
	if !ok {
		return employee.Record{}, false
	}
	return h.nodes[i].record, true
}

// Records returns the deduplicated records in input order.
func (h *Hierarchy) Records() []employee.Record {
	out := make([]employee.Record, len(h.nodes))
	for i, n := range h.nodes {
		out[i] = n.record
	}
	return out
}

func (h *Hierarchy) Roots() RootInference {
	return RootInference{IDs: append([]string(nil), h.roots.IDs...), Strategy: h.roots.Strategy}
}

// Parent returns the resolved manager id.
func (h *Hierarchy) Parent(id string) (string, bool) {
	i, ok := h.index[id]
	if !ok || h.nodes[i].parent < 0 {
		return "", false
	}
	return h.nodes[h.nodes[i].parent].record.EmployeeID, true
}

func (h *Hierarchy) Children(id string) []string {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(h.nodes[i].children))
	for _, c := range h.nodes[i].children {
		out = append(out, h.nodes[c].record.EmployeeID)
	}
	return out
}

// Expandable reports whether toggling id can change anything.
func (h *Hierarchy) Expandable(id string) bool {
	i, ok := h.index[id]
	if !ok {
		return false
	}
	return len(h.nodes[i].children) > 0 || h.nodes[i].record.DirectReportsCount > 0
}

// Ancestors walks resolved managers upward from id, nearest first.
func (h *Hierarchy) Ancestors(id string) ([]string, error) {
	i, ok := h.index[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	seen := map[int]bool{i: true}
	var out []string
	for p := h.nodes[i].parent; p >= 0; p = h.nodes[p].parent {
		if seen[p] {
			return nil, ErrManagerCycle
		}
		seen[p] = true
		out = append(out, h.nodes[p].record.EmployeeID)
	}
	return out, nil
}

// Unreachable lists ids no root can reach. Only employees caught in or
// hanging off a manager cycle end up here.
func (h *Hierarchy) Unreachable() []string {
	reached := make([]bool, len(h.nodes))
	var stack []int
	for _, id := range h.roots.IDs {
		stack = append(stack, h.index[id])
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[v] {
			continue
		}
		reached[v] = true
		stack = append(stack, h.nodes[v].children...)
	}
	var out []string
	for i, n := range h.nodes {
		if !reached[i] {
			out = append(out, n.record.EmployeeID)
		}
	}
	return out
}

// Visible computes the nodes and edges shown for expanded. Traversal is a
// pre-order DFS from each root in order; a node reached twice is skipped.
func (h *Hierarchy) Visible(expanded ExpandedSet) Chart {
	chart := Chart{
		Nodes:        []RenderNode{},
		Edges:        []RenderEdge{},
		Roots:        append([]string{}, h.roots.IDs...),
		RootStrategy: h.roots.Strategy,
	}
	visited := make([]bool, len(h.nodes))

	var visit func(v int)
	visit = func(v int) {
		visited[v] = true
		n := h.nodes[v]
		id := n.record.EmployeeID
		open := expanded.Has(id)
		chart.Nodes = append(chart.Nodes, RenderNode{
			ID:          id,
			Employee:    n.record,
			IsExpanded:  open,
			HasChildren: len(n.children) > 0,
			ChildCount:  len(n.children),
		})
		if !open {
			return
		}
		for _, c := range n.children {
			if visited[c] {
				continue
			}
			chart.Edges = append(chart.Edges, newEdge(id, h.nodes[c].record))
			visit(c)
		}
	}
	for _, id := range h.roots.IDs {
		if v := h.index[id]; !visited[v] {
			visit(v)
		}
	}
	return chart
}

func newEdge(source string, child employee.Record) RenderEdge {
	style := EdgeStyle{Color: EdgeColorFilled}
	if child.IsVacant {
		style = EdgeStyle{Dashed: true, Color: EdgeColorVacant}
	}
	return RenderEdge{
		ID:       "e-" + source + "-" + child.EmployeeID,
		SourceID: source,
		TargetID: child.EmployeeID,
		Style:    style,
	}
}

// BuildOrgHierarchy returns the visible chart for records and expanded.
// Empty input yields an empty chart.
func BuildOrgHierarchy(records []employee.Record, expanded ExpandedSet) Chart {
	return NewHierarchy(records, nil).Visible(expanded)
}
