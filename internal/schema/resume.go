// Package schema defines the canonical resume record and its structural
// validation. Every component that produces or consumes resume data goes
// through this package.
package schema

import "encoding/json"

// Resume is the canonical structured resume record. Required fields are
// always present; an empty string means "not found", never a missing key.
// Sequence fields are always non-nil after Normalize so they serialize as
// [] rather than null.
type Resume struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Skills     []string          `json:"skills"`
	Projects   []ProjectEntry    `json:"projects"`
}

// ExperienceEntry is a single work experience item. Order within
// Resume.Experience is display order.
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Dates       string `json:"dates"`
	Description string `json:"description"`
}

// EducationEntry is a single education item.
type EducationEntry struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Dates  string `json:"dates"`
}

// ProjectEntry is a single project item. Link is the only optional field
// in any sub-entity.
type ProjectEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// Normalize ensures every sequence field is non-nil and drops empty skill
// strings. It is applied after every decode so downstream code never has
// to distinguish nil from empty.
func (r *Resume) Normalize() {
	if r.Experience == nil {
		r.Experience = []ExperienceEntry{}
	}
	if r.Education == nil {
		r.Education = []EducationEntry{}
	}
	if r.Projects == nil {
		r.Projects = []ProjectEntry{}
	}
	skills := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		if s != "" {
			skills = append(skills, s)
		}
	}
	r.Skills = skills
}

// Clone returns a deep copy of the resume. Callers that hand a resume to
// another component pass a clone so the original can never be mutated
// behind the owner's back.
func (r *Resume) Clone() *Resume {
	c := *r
	c.Experience = append([]ExperienceEntry{}, r.Experience...)
	c.Education = append([]EducationEntry{}, r.Education...)
	c.Skills = append([]string{}, r.Skills...)
	c.Projects = append([]ProjectEntry{}, r.Projects...)
	return &c
}

// Marshal serializes the resume to UTF-8 JSON with the canonical field
// names and nesting.
func (r *Resume) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
