package planner

import (
	"sort"

	"gradplan/internal/models"
)

// RequirementProgress is the per-requirement slice of a validation result.
//
// RequiredCount means "courses required" for REQUIRED/CHOICE and "credits
// required" for LEVEL_REQUIREMENT; it is nil for ELECTIVE, whose completion
// is judged only on whether anything at all has been completed.
// CompletedCount follows the same unit as RequiredCount.
type RequirementProgress struct {
	RequirementID      string                 `json:"requirement_id"`
	RequirementName    string                 `json:"requirement_name"`
	RequirementType    models.RequirementType `json:"requirement_type"`
	RequiredCount      *int                   `json:"required_count"`
	CompletedCount     int                    `json:"completed_count"`
	IsSatisfied        bool                   `json:"is_satisfied"`
	CompletedCourses   []string               `json:"completed_courses"`
	RemainingCourses   []string               `json:"remaining_courses"`
	ProgressPercentage float64                `json:"progress_percentage"`
}

// RequirementValidationResult aggregates progress across every requirement
// of a program. OverallProgress is the share of satisfied requirements, not
// a credit ratio.
type RequirementValidationResult struct {
	ProgramCode           string                `json:"program_code"`
	ProgramName           string                `json:"program_name"`
	TotalCreditsRequired  int                   `json:"total_credits_required"`
	TotalCreditsCompleted int                   `json:"total_credits_completed"`
	Requirements          []RequirementProgress `json:"requirements"`
	OverallProgress       float64               `json:"overall_progress"`
	IsComplete            bool                  `json:"is_complete"`
}

// ValidateProgram evaluates every requirement of the program against the
// completed set. Completed codes absent from the catalog still count toward
// set-membership checks but contribute zero credits. A program with no
// requirements is vacuously complete at zero percent overall progress.
func ValidateProgram(program models.Program, completed CompletedSet, catalog Catalog) RequirementValidationResult {
	totalCredits := 0
	for code := range completed {
		if course, ok := catalog.Course(code); ok {
			totalCredits += course.Credits
		}
	}

	reqs := make([]models.Requirement, len(program.Requirements))
	copy(reqs, program.Requirements)
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].OrderIndex < reqs[j].OrderIndex })

	progress := make([]RequirementProgress, 0, len(reqs))
	satisfied := 0
	for _, req := range reqs {
		p := EvaluateRequirement(req, completed, catalog)
		progress = append(progress, p)
		if p.IsSatisfied {
			satisfied++
		}
	}

	overall := 0.0
	if len(reqs) > 0 {
		overall = float64(satisfied) / float64(len(reqs)) * 100
	}

	complete := true
	for _, p := range progress {
		if !p.IsSatisfied {
			complete = false
			break
		}
	}

	return RequirementValidationResult{
		ProgramCode:           program.Code,
		ProgramName:           program.Name,
		TotalCreditsRequired:  program.TotalCredits,
		TotalCreditsCompleted: totalCredits,
		Requirements:          progress,
		OverallProgress:       overall,
		IsComplete:            complete,
	}
}

// EvaluateRequirement computes progress for a single requirement.
func EvaluateRequirement(req models.Requirement, completed CompletedSet, catalog Catalog) RequirementProgress {
	switch req.Type {
	case models.RequirementRequired:
		// need is recomputed from the deduplicated list inside.
		return evaluateCourseList(req, completed, 0, false)

	case models.RequirementChoice:
		need := 1
		if req.ChooseCount != nil && *req.ChooseCount > 0 {
			need = *req.ChooseCount
		}
		return evaluateCourseList(req, completed, need, true)

	case models.RequirementLevel:
		return evaluateLevelRequirement(req, completed, catalog)

	default:
		// ELECTIVE, and any type this code predates: satisfied as soon as
		// the student has completed anything at all.
		done := len(completed)
		p := RequirementProgress{
			RequirementID:    req.ID,
			RequirementName:  req.Name,
			RequirementType:  req.Type,
			CompletedCount:   done,
			IsSatisfied:      done > 0,
			CompletedCourses: completed.Sorted(),
			RemainingCourses: []string{},
		}
		if p.IsSatisfied {
			p.ProgressPercentage = 100
		}
		return p
	}
}

// evaluateCourseList handles REQUIRED and CHOICE, which differ only in how
// many completions satisfy the requirement and whether progress caps at 100.
func evaluateCourseList(req models.Requirement, completed CompletedSet, need int, capProgress bool) RequirementProgress {
	var done, remaining []string
	courses := sortedUnique(normalizeAll(req.Courses))
	for _, code := range courses {
		if completed.Contains(code) {
			done = append(done, code)
		} else {
			remaining = append(remaining, code)
		}
	}
	if !capProgress {
		need = len(courses)
	}

	p := RequirementProgress{
		RequirementID:    req.ID,
		RequirementName:  req.Name,
		RequirementType:  req.Type,
		RequiredCount:    &need,
		CompletedCount:   len(done),
		CompletedCourses: emptyIfNil(done),
		RemainingCourses: emptyIfNil(remaining),
	}

	if capProgress {
		p.IsSatisfied = len(done) >= need
	} else {
		p.IsSatisfied = len(remaining) == 0
	}

	switch {
	case need > 0:
		p.ProgressPercentage = float64(p.CompletedCount) / float64(need) * 100
		if capProgress && p.ProgressPercentage > 100 {
			p.ProgressPercentage = 100
		}
	default:
		p.ProgressPercentage = 100
	}
	return p
}

// evaluateLevelRequirement counts credits from completed catalog courses that
// pass the level and subject filters. RemainingCourses is always empty; the
// matching universe is open-ended, so no finite list exists.
func evaluateLevelRequirement(req models.Requirement, completed CompletedSet, catalog Catalog) RequirementProgress {
	creditsNeeded := 0
	if req.CreditsNeeded != nil {
		creditsNeeded = *req.CreditsNeeded
	}

	credits := 0
	var matching []string
	for code := range completed {
		course, ok := catalog.Course(code)
		if !ok {
			continue
		}
		if !matchesFilters(course, req) {
			continue
		}
		credits += course.Credits
		matching = append(matching, course.Code)
	}
	sort.Strings(matching)

	p := RequirementProgress{
		RequirementID:    req.ID,
		RequirementName:  req.Name,
		RequirementType:  req.Type,
		RequiredCount:    &creditsNeeded,
		CompletedCount:   credits,
		IsSatisfied:      credits >= creditsNeeded,
		CompletedCourses: emptyIfNil(matching),
		RemainingCourses: []string{},
	}
	if creditsNeeded > 0 {
		p.ProgressPercentage = float64(credits) / float64(creditsNeeded) * 100
		if p.ProgressPercentage > 100 {
			p.ProgressPercentage = 100
		}
	} else {
		p.ProgressPercentage = 100
	}
	return p
}

// CourseSatisfiesRequirement reports whether taking the course would move
// the requirement forward. Already-completed courses never satisfy anything;
// requirement types this code does not know about satisfy nothing.
func CourseSatisfiesRequirement(course models.Course, req models.Requirement, completed CompletedSet) bool {
	if completed.Contains(course.Code) {
		return false
	}

	switch req.Type {
	case models.RequirementRequired, models.RequirementChoice:
		code := NormalizeCode(course.Code)
		for _, c := range req.Courses {
			if NormalizeCode(c) == code {
				return true
			}
		}
		return false

	case models.RequirementLevel:
		return matchesFilters(course, req)

	case models.RequirementElective:
		return true

	default:
		return false
	}
}

func matchesFilters(course models.Course, req models.Requirement) bool {
	if len(req.LevelFilter) > 0 {
		found := false
		for _, lvl := range req.LevelFilter {
			if course.Level == lvl {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if req.SubjectFilter != "" && course.Subject != req.SubjectFilter {
		return false
	}
	return true
}

func normalizeAll(codes []string) []string {
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = NormalizeCode(code)
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
