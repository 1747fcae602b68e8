package services

import (
	"encoding/json"
	"sort"
)

// ExpandedSet holds the ids whose children are shown. The zero value is
// an empty set; mutate only sets you own (see Clone).
type ExpandedSet map[string]struct{}

func NewExpandedSet(ids ...string) ExpandedSet {
	s := make(ExpandedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s ExpandedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s ExpandedSet) Add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

func (s ExpandedSet) Remove(id string) {
	delete(s, id)
}

func (s ExpandedSet) Len() int {
	return len(s)
}

// IDs returns the members sorted.
func (s ExpandedSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s ExpandedSet) Clone() ExpandedSet {
	out := make(ExpandedSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s ExpandedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *ExpandedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewExpandedSet(ids...)
	return nil
}
