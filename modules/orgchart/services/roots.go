package services

import (
	"strings"
	"unicode"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

const StrategyUnresolvedManager = "unresolved-manager"

// DefaultRootKeywords are tried in order; the first with any match wins.
var DefaultRootKeywords = []string{"VC", "CEO", "CHAIRMAN", "PRESIDENT", "DIRECTOR"}

// RootStrategy picks root ids from a record set, or returns none.
type RootStrategy interface {
	Name() string
	FindRoots(records []employee.Record) []string
}

type NoManagerStrategy struct{}

func (NoManagerStrategy) Name() string { return "no-manager" }

func (NoManagerStrategy) FindRoots(records []employee.Record) []string {
	var ids []string
	for _, r := range records {
		if !r.HasManager() {
			ids = append(ids, r.EmployeeID)
		}
	}
	return ids
}

// MinLevelStrategy takes everyone at the smallest known LevelToCEO.
type MinLevelStrategy struct{}

func (MinLevelStrategy) Name() string { return "min-level" }

func (MinLevelStrategy) FindRoots(records []employee.Record) []string {
	minLevel, found := 0, false
	for _, r := range records {
		if r.LevelToCEO == nil {
			continue
		}
		if !found || *r.LevelToCEO < minLevel {
			minLevel, found = *r.LevelToCEO, true
		}
	}
	if !found {
		return nil
	}
	var ids []string
	for _, r := range records {
		if r.LevelToCEO != nil && *r.LevelToCEO == minLevel {
			ids = append(ids, r.EmployeeID)
		}
	}
	return ids
}

// MaxReportsStrategy takes everyone tied for the most direct reports.
// It yields nothing when nobody has reports.
type MaxReportsStrategy struct{}

func (MaxReportsStrategy) Name() string { return "max-reports" }

func (MaxReportsStrategy) FindRoots(records []employee.Record) []string {
	maxReports := 0
	for _, r := range records {
		maxReports = max(maxReports, r.DirectReportsCount)
	}
	if maxReports == 0 {
		return nil
	}
	var ids []string
	for _, r := range records {
		if r.DirectReportsCount == maxReports {
			ids = append(ids, r.EmployeeID)
		}
	}
	return ids
}

// KeywordMatchStrategy matches keywords as whole words of PositionGroup or
// Title, case-insensitively.
type KeywordMatchStrategy struct {
	Keywords []string
}

func (KeywordMatchStrategy) Name() string { return "keyword" }

func (s KeywordMatchStrategy) FindRoots(records []employee.Record) []string {
	keywords := s.Keywords
	if len(keywords) == 0 {
		keywords = DefaultRootKeywords
	}
	tokens := make([]map[string]bool, len(records))
	for i, r := range records {
		tokens[i] = wordSet(r.PositionGroup, r.Title)
	}
	for _, kw := range keywords {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		var ids []string
		for i, r := range records {
			if tokens[i][kw] {
				ids = append(ids, r.EmployeeID)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

func wordSet(fields ...string) map[string]bool {
	set := map[string]bool{}
	for _, f := range fields {
		for _, w := range strings.FieldsFunc(strings.ToUpper(f), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			set[w] = true
		}
	}
	return set
}

// FirstNStrategy takes the first N records in input order.
type FirstNStrategy struct {
	N int
}

func (FirstNStrategy) Name() string { return "first-n" }

func (s FirstNStrategy) FindRoots(records []employee.Record) []string {
	n := s.N
	if n <= 0 {
		n = 3
	}
	var ids []string
	for _, r := range records {
		if len(ids) == n {
			break
		}
		ids = append(ids, r.EmployeeID)
	}
	return ids
}

// RootInference is the chosen root set and the strategy that chose it.
type RootInference struct {
	IDs      []string `json:"ids"`
	Strategy string   `json:"strategy"`
}

type RootInferrer struct {
	Strategies []RootStrategy
}

// NewRootInferrer builds the standard chain. Empty keywords use
// DefaultRootKeywords.
func NewRootInferrer(keywords []string) *RootInferrer {
	return &RootInferrer{Strategies: []RootStrategy{
		NoManagerStrategy{},
		MinLevelStrategy{},
		MaxReportsStrategy{},
		KeywordMatchStrategy{Keywords: keywords},
		FirstNStrategy{N: 3},
	}}
}

var defaultInferrer = NewRootInferrer(nil)

// Fallback runs the strategy chain and returns the first non-empty result.
func (ri *RootInferrer) Fallback(records []employee.Record) RootInference {
	for _, s := range ri.Strategies {
		if ids := s.FindRoots(records); len(ids) > 0 {
			return RootInference{IDs: ids, Strategy: s.Name()}
		}
	}
	return RootInference{}
}

// Infer returns the records whose manager does not resolve, or the
// fallback chain's answer when every manager resolves.
func (ri *RootInferrer) Infer(records []employee.Record) RootInference {
	return ri.infer(uniqueRecords(records))
}

func (ri *RootInferrer) infer(unique []employee.Record) RootInference {
	present := make(map[string]bool, len(unique))
	for _, r := range unique {
		present[r.EmployeeID] = true
	}
	var ids []string
	for _, r := range unique {
		if !resolvesManager(r, present) {
			ids = append(ids, r.EmployeeID)
		}
	}
	if len(ids) > 0 {
		return RootInference{IDs: ids, Strategy: StrategyUnresolvedManager}
	}
	return ri.Fallback(unique)
}

// InferRoots runs the default chain.
func InferRoots(records []employee.Record) RootInference {
	return defaultInferrer.Infer(records)
}

func resolvesManager(r employee.Record, present map[string]bool) bool {
	return r.LineManagerID != "" && r.LineManagerID != r.EmployeeID && present[r.LineManagerID]
}
