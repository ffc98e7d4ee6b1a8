// Package models defines the catalog and program records shared by the
// planner, store, and HTTP layers. All types are plain data: nothing in
// this package touches a database or the network.
package models

// RequirementType enumerates the four kinds of program requirements.
type RequirementType string

const (
	RequirementRequired RequirementType = "REQUIRED"
	RequirementChoice   RequirementType = "CHOICE"
	RequirementLevel    RequirementType = "LEVEL_REQUIREMENT"
	RequirementElective RequirementType = "ELECTIVE"
)

// Course is a single catalog entry. Code is unique within a catalog and is
// stored normalized (uppercase, trimmed).
type Course struct {
	ID               string   `json:"id"`
	Code             string   `json:"code"`
	Title            string   `json:"title"`
	Credits          int      `json:"credits"`
	Description      string   `json:"description,omitempty"`
	Level            string   `json:"level"`
	Subject          string   `json:"subject"`
	TypicallyOffered []string `json:"typically_offered"`
	Prerequisites    *Formula `json:"prerequisite_formula,omitempty"`
}

// Requirement is one rule within a program's degree requirements.
//
// Courses is used by REQUIRED and CHOICE; CreditsNeeded by LEVEL_REQUIREMENT
// and ELECTIVE; ChooseCount by CHOICE; LevelFilter and SubjectFilter by
// LEVEL_REQUIREMENT. The course codes listed here are not guaranteed to
// exist in the catalog.
type Requirement struct {
	ID            string          `json:"id"`
	ProgramID     string          `json:"program_id"`
	Name          string          `json:"name"`
	Type          RequirementType `json:"requirement_type"`
	Courses       []string        `json:"courses"`
	CreditsNeeded *int            `json:"credits_needed"`
	ChooseCount   *int            `json:"choose_count"`
	LevelFilter   []string        `json:"level_filter"`
	SubjectFilter string          `json:"subject_filter,omitempty"`
	OrderIndex    int             `json:"order_index"`
}

// Program is a degree program together with its ordered requirement list
// and any special rules layered on top of requirement satisfaction.
type Program struct {
	ID           string        `json:"id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	TotalCredits int           `json:"total_credits"`
	Requirements []Requirement `json:"requirements"`
	SpecialRules SpecialRules  `json:"special_rules"`
}

// SpecialRules holds program-level exclusion/substitution policies plus any
// free-text requirements. All fields default to empty.
type SpecialRules struct {
	Exclusions             []ExclusionRule    `json:"exclusions,omitempty"`
	Substitutions          []SubstitutionRule `json:"substitutions,omitempty"`
	AdditionalRequirements []string           `json:"additional_requirements,omitempty"`
}

// ExclusionRule states that holding Course disqualifies every code in
// Excludes from counting toward the degree.
type ExclusionRule struct {
	Course   string   `json:"course"`
	Excludes []string `json:"excludes"`
}

// SubstitutionRule states that From should be replaced by To.
type SubstitutionRule struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Empty reports whether the rule set contains no rules at all.
func (r SpecialRules) Empty() bool {
	return len(r.Exclusions) == 0 && len(r.Substitutions) == 0 && len(r.AdditionalRequirements) == 0
}
