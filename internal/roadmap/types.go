// Package roadmap generates semester-by-semester degree plans with an LLM,
// validates them against program requirements, and caches the results.
package roadmap

import (
	"errors"

	"gradplan/internal/models"
)

// ErrGeneration wraps any failure while producing a roadmap that is not a
// missing program or course.
var ErrGeneration = errors.New("roadmap generation failed")

// Request captures everything that shapes a generated roadmap. The field
// set is also the cache key: two identical requests share one cached plan.
type Request struct {
	ProgramCode          string         `json:"program_code" binding:"required"`
	StartingYear         int            `json:"starting_year" binding:"required"`
	StartingTerm         string         `json:"starting_term"`
	CompletedCourses     []string       `json:"completed_courses"`
	Preferences          map[string]any `json:"preferences"`
	CreditLoadPreference string         `json:"credit_load_preference"`
	MaxYears             int            `json:"max_years"`
}

func (r *Request) applyDefaults() {
	if r.StartingTerm == "" {
		r.StartingTerm = "FALL"
	}
	if r.CreditLoadPreference == "" {
		r.CreditLoadPreference = "STANDARD"
	}
	if r.MaxYears <= 0 {
		r.MaxYears = 4
	}
	if r.CompletedCourses == nil {
		r.CompletedCourses = []string{}
	}
}

// CourseInSemester is one scheduled course inside a semester plan.
type CourseInSemester struct {
	Code                  string   `json:"code"`
	Title                 string   `json:"title"`
	Credits               int      `json:"credits"`
	SatisfiesRequirements []string `json:"satisfies_requirements"`
	PrerequisitesMet      bool     `json:"prerequisites_met"`
	Warnings              []string `json:"warnings"`
}

// SemesterPlan is one term of the roadmap.
type SemesterPlan struct {
	Number       int                `json:"number"`
	Term         string             `json:"term"`
	Year         int                `json:"year"`
	Courses      []CourseInSemester `json:"courses"`
	TotalCredits int                `json:"total_credits"`
}

// RequirementProgress reports one requirement's standing relative to the
// plan. Remaining is human-readable and nil once satisfied.
type RequirementProgress struct {
	RequirementID    string                 `json:"requirement_id"`
	RequirementName  string                 `json:"requirement_name"`
	RequirementType  models.RequirementType `json:"requirement_type"`
	CreditsNeeded    int                    `json:"credits_needed"`
	CreditsCompleted int                    `json:"credits_completed"`
	CreditsPlanned   int                    `json:"credits_planned"`
	IsSatisfied      bool                   `json:"is_satisfied"`
	CoursesUsed      []string               `json:"courses_used"`
	Remaining        *string                `json:"remaining"`
}

// Response is the full generated roadmap. IsValid is false when the final
// generation attempt still left requirements unsatisfied; the plan is
// returned anyway with the validation errors appended to Warnings.
type Response struct {
	ProgramCode         string                `json:"program_code"`
	ProgramName         string                `json:"program_name"`
	Semesters           []SemesterPlan        `json:"semesters"`
	RequirementProgress []RequirementProgress `json:"requirement_progress"`
	TotalCredits        int                   `json:"total_credits"`
	CreditsNeeded       int                   `json:"credits_needed"`
	Warnings            []string              `json:"warnings"`
	GraduationTerm      *string               `json:"graduation_term"`
	IsValid             bool                  `json:"is_valid"`
}
