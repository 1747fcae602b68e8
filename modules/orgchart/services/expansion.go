package services

import (
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

type ActionType string

const (
	ActionToggle      ActionType = "toggle"
	ActionExpandAll   ActionType = "expandAll"
	ActionCollapseAll ActionType = "collapseAll"
	ActionNavigateTo  ActionType = "navigateTo"
	ActionInitialize  ActionType = "initialize"
)

type Action struct {
	Type       ActionType `json:"type" validate:"required,oneof=toggle expandAll collapseAll navigateTo initialize"`
	EmployeeID string     `json:"employeeId,omitempty" validate:"required_if=Type toggle,required_if=Type navigateTo"`
}

func Toggle(id string) Action     { return Action{Type: ActionToggle, EmployeeID: id} }
func ExpandAll() Action           { return Action{Type: ActionExpandAll} }
func CollapseAll() Action         { return Action{Type: ActionCollapseAll} }
func NavigateTo(id string) Action { return Action{Type: ActionNavigateTo, EmployeeID: id} }
func Initialize() Action          { return Action{Type: ActionInitialize} }

// State is the user-owned view state of a chart.
type State struct {
	Expanded   ExpandedSet `json:"expanded"`
	SelectedID string      `json:"selectedId,omitempty"`
}

func (s State) clone() State {
	return State{Expanded: s.Expanded.Clone(), SelectedID: s.SelectedID}
}

// Apply runs action against state. The input state is never modified;
// on error the returned state equals the input.
func Apply(state State, records []employee.Record, action Action) (State, error) {
	return NewHierarchy(records, nil).Apply(state, action)
}

func (h *Hierarchy) Apply(state State, action Action) (State, error) {
	next := state.clone()
	switch action.Type {
	case ActionToggle:
		if !h.Has(action.EmployeeID) {
			return state, employee.ErrEmployeeNotFound
		}
		if !h.Expandable(action.EmployeeID) {
			return next, nil
		}
		if next.Expanded.Has(action.EmployeeID) {
			next.Expanded.Remove(action.EmployeeID)
		} else {
			next.Expanded.Add(action.EmployeeID)
		}

	case ActionExpandAll:
		next.Expanded = NewExpandedSet()
		for _, n := range h.nodes {
			if len(n.children) > 0 || n.record.DirectReportsCount > 0 {
				next.Expanded.Add(n.record.EmployeeID)
			}
		}

	case ActionCollapseAll:
		next.Expanded = NewExpandedSet(h.roots.IDs...)

	case ActionNavigateTo:
		ancestors, err := h.Ancestors(action.EmployeeID)
		if err != nil {
			return state, err
		}
		for _, id := range ancestors {
			next.Expanded.Add(id)
		}
		next.SelectedID = action.EmployeeID

	case ActionInitialize:
		if next.Expanded.Len() == 0 && h.Len() > 0 {
			next.Expanded = NewExpandedSet(h.roots.IDs...)
		}

	default:
		return state, ErrInvalidInput
	}
	return next, nil
}
