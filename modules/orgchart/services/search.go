package services

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

type SearchResult struct {
	Employee employee.Record `json:"employee"`
	Field    string          `json:"field"`
	Distance int             `json:"distance"`
}

type searchHit struct {
	index    int
	field    string
	distance int
}

// SearchEmployees ranks records whose id, name or title fuzzily contain
// query. An exact id match ranks first. A limit <= 0 returns every hit.
func SearchEmployees(records []employee.Record, query string, limit int) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	unique := uniqueRecords(records)

	fields := []struct {
		name string
		get  func(employee.Record) string
	}{
		{"employeeId", func(r employee.Record) string { return r.EmployeeID }},
		{"name", func(r employee.Record) string { return r.Name }},
		{"title", func(r employee.Record) string { return r.Title }},
	}

	best := map[int]searchHit{}
	for _, f := range fields {
		targets := make([]string, len(unique))
		for i, r := range unique {
			targets[i] = f.get(r)
		}
		ranks := fuzzy.RankFindNormalizedFold(query, targets)
		for _, rank := range ranks {
			distance := rank.Distance
			if f.name == "employeeId" && strings.EqualFold(rank.Target, query) {
				distance = -1
			}
			if hit, ok := best[rank.OriginalIndex]; !ok || distance < hit.distance {
				best[rank.OriginalIndex] = searchHit{index: rank.OriginalIndex, field: f.name, distance: distance}
			}
		}
	}

	hits := make([]searchHit, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].index < hits[j].index
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchResult{Employee: unique[h.index], Field: h.field, Distance: h.distance})
	}
	return out
}
