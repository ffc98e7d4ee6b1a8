package server

import (
	"gradplan/internal/models"
)

// ErrorResponse is the JSON error envelope every handler uses.
type ErrorResponse struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// Error codes returned in the envelope.
const (
	codeNotFound       = "NOT_FOUND"
	codeInvalidRequest = "INVALID_REQUEST"
	codeInternal       = "INTERNAL_ERROR"
	codeGeneration     = "GENERATION_FAILED"
	codeUnavailable    = "SERVICE_UNAVAILABLE"
)

// CourseListResponse pages through the catalog.
type CourseListResponse struct {
	Courses  []models.Course `json:"courses"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ProgramListResponse lists every program.
type ProgramListResponse struct {
	Programs []models.Program `json:"programs"`
	Total    int              `json:"total"`
}

// CompletedCoursesRequest is the shared body for prerequisite checks,
// program validation, recommendations, and special-rule evaluation. An
// empty list is a valid transcript.
type CompletedCoursesRequest struct {
	CompletedCourses []string `json:"completed_courses"`
}

// CourseListRequest carries an explicit course list (special rules).
type CourseListRequest struct {
	Courses []string `json:"courses" binding:"required"`
}

// RoadmapValidationRequest proposes one semester's schedule.
type RoadmapValidationRequest struct {
	ProgramCode      string   `json:"program_code" binding:"required"`
	SemesterNumber   int      `json:"semester_number"`
	Courses          []string `json:"courses" binding:"required"`
	CompletedCourses []string `json:"completed_courses"`
}

// RoadmapValidationResponse reports on a proposed semester. Validation is a
// credit-count heuristic for now; prerequisite checking per slot is a
// planned follow-up (see the courses prerequisite endpoints meanwhile).
type RoadmapValidationResponse struct {
	IsValid            bool             `json:"is_valid"`
	Errors             []string         `json:"errors"`
	Warnings           []string         `json:"warnings"`
	TotalCredits       int              `json:"total_credits"`
	PrerequisiteIssues []map[string]any `json:"prerequisite_issues"`
}

// RequirementCheckRequest asks which requirements a course list satisfies.
type RequirementCheckRequest struct {
	ProgramCode string   `json:"program_code" binding:"required"`
	Courses     []string `json:"courses" binding:"required"`
}

// RequirementCheckResponse summarizes requirement standing for a course
// list.
type RequirementCheckResponse struct {
	ProgramCode    string               `json:"program_code"`
	Requirements   []RequirementSummary `json:"requirements"`
	TotalCredits   int                  `json:"total_credits"`
	SatisfiedCount int                  `json:"satisfied_count"`
	PartialCount   int                  `json:"partial_count"`
}

// RequirementSummary is the credit-oriented view of one requirement used by
// the requirement-check endpoint.
type RequirementSummary struct {
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
