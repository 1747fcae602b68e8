package employee

import (
	"strings"
)

// RawEmployee is an employee object as delivered by a data source. Every field
// is optional; the manager reference may arrive under any of three names.
type RawEmployee struct {
	EmployeeID FlexString `json:"employeeId,omitempty" yaml:"employeeId,omitempty"`
	ID         FlexString `json:"id,omitempty" yaml:"id,omitempty"`

	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	FullName string `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	JobTitle string `json:"jobTitle,omitempty" yaml:"jobTitle,omitempty"`

	Department       string `json:"department,omitempty" yaml:"department,omitempty"`
	Unit             string `json:"unit,omitempty" yaml:"unit,omitempty"`
	BusinessFunction string `json:"businessFunction,omitempty" yaml:"businessFunction,omitempty"`
	PositionGroup    string `json:"positionGroup,omitempty" yaml:"positionGroup,omitempty"`

	DirectReportsCount *FlexInt `json:"directReportsCount,omitempty" yaml:"directReportsCount,omitempty"`

	LineManagerID FlexString `json:"lineManagerId,omitempty" yaml:"lineManagerId,omitempty"`
	ManagerID     FlexString `json:"managerId,omitempty" yaml:"managerId,omitempty"`
	ParentID      FlexString `json:"parentId,omitempty" yaml:"parentId,omitempty"`

	LevelToCEO *FlexInt  `json:"levelToCeo,omitempty" yaml:"levelToCeo,omitempty"`
	IsVacant   *FlexBool `json:"isVacant,omitempty" yaml:"isVacant,omitempty"`

	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty"`
	StatusColor string   `json:"statusColor,omitempty" yaml:"statusColor,omitempty"`
	Grading     string   `json:"grading,omitempty" yaml:"grading,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Record is the normalized shape used throughout the chart.
type Record struct {
	EmployeeID string `json:"employeeId"`

	Name             string `json:"name"`
	Title            string `json:"title"`
	Department       string `json:"department"`
	Unit             string `json:"unit"`
	BusinessFunction string `json:"businessFunction"`
	PositionGroup    string `json:"positionGroup"`

	DirectReportsCount int    `json:"directReportsCount"`
	LineManagerID      string `json:"lineManagerId,omitempty"`
	LevelToCEO         *int   `json:"levelToCeo,omitempty"`
	IsVacant           bool   `json:"isVacant"`

	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
	StatusColor string   `json:"statusColor,omitempty"`
	Grading     string   `json:"grading,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Normalize projects raw onto a Record. It returns nil for a nil input.
func Normalize(raw *RawEmployee) *Record {
	if raw == nil {
		return nil
	}

	name := firstNonEmpty(raw.Name, raw.FullName)
	title := firstNonEmpty(raw.Title, raw.JobTitle)

	rec := &Record{
		EmployeeID:       firstNonEmpty(string(raw.EmployeeID), string(raw.ID)),
		Name:             name,
		Title:            title,
		Department:       strings.TrimSpace(raw.Department),
		Unit:             strings.TrimSpace(raw.Unit),
		BusinessFunction: strings.TrimSpace(raw.BusinessFunction),
		PositionGroup:    strings.TrimSpace(raw.PositionGroup),
		LineManagerID:    firstNonEmpty(string(raw.LineManagerID), string(raw.ManagerID), string(raw.ParentID)),
		Email:            strings.TrimSpace(raw.Email),
		Phone:            strings.TrimSpace(raw.Phone),
		AvatarURL:        strings.TrimSpace(raw.AvatarURL),
		StatusColor:      strings.TrimSpace(raw.StatusColor),
		Grading:          strings.TrimSpace(raw.Grading),
		Tags:             cleanTags(raw.Tags),
	}
	if raw.DirectReportsCount != nil && *raw.DirectReportsCount > 0 {
		rec.DirectReportsCount = int(*raw.DirectReportsCount)
	}
	if raw.LevelToCEO != nil {
		level := int(*raw.LevelToCEO)
		rec.LevelToCEO = &level
	}
	explicit := raw.IsVacant != nil && bool(*raw.IsVacant)
	rec.IsVacant = explicit || ContainsVacant(name) || ContainsVacant(title)
	return rec
}

// Raw converts the record back into the raw shape, so it can be fed to
// Normalize again.
func (r Record) Raw() *RawEmployee {
	raw := &RawEmployee{
		EmployeeID:       FlexString(r.EmployeeID),
		Name:             r.Name,
		Title:            r.Title,
		Department:       r.Department,
		Unit:             r.Unit,
		BusinessFunction: r.BusinessFunction,
		PositionGroup:    r.PositionGroup,
		LineManagerID:    FlexString(r.LineManagerID),
		Email:            r.Email,
		Phone:            r.Phone,
		AvatarURL:        r.AvatarURL,
		StatusColor:      r.StatusColor,
		Grading:          r.Grading,
	}
	count := FlexInt(r.DirectReportsCount)
	raw.DirectReportsCount = &count
	if r.LevelToCEO != nil {
		level := FlexInt(*r.LevelToCEO)
		raw.LevelToCEO = &level
	}
	vacant := FlexBool(r.IsVacant)
	raw.IsVacant = &vacant
	if len(r.Tags) > 0 {
		raw.Tags = append([]string(nil), r.Tags...)
	}
	return raw
}

// HasManager reports whether the record references a manager at all.
func (r Record) HasManager() bool {
	return r.LineManagerID != ""
}

// ContainsVacant is the case-insensitive "vacant" substring test.
func ContainsVacant(s string) bool {
	return strings.Contains(strings.ToLower(s), "vacant")
}

// NormalizeAll drops nil entries and returns normalized records in input order.
func NormalizeAll(raws []*RawEmployee) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if rec := Normalize(raw); rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
