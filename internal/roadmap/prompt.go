package roadmap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gradplan/internal/models"
	"gradplan/internal/planner"
)

// Credits per semester by load preference.
var creditLoadTargets = map[string]int{
	"LIGHT":    12,
	"STANDARD": 15,
	"HEAVY":    18,
}

const defaultCourseCredits = 3

func targetCredits(preference string) int {
	if t, ok := creditLoadTargets[preference]; ok {
		return t
	}
	return creditLoadTargets["STANDARD"]
}

// buildPrompt assembles the advisor prompt: student profile, requirement
// status lines, available courses grouped by level, and planning rules.
func buildPrompt(program models.Program, req Request, available []planner.AvailableCourse, catalog planner.Catalog) string {
	completed := planner.NewCompletedSet(req.CompletedCourses)

	completedCredits := 0
	for _, code := range req.CompletedCourses {
		completedCredits += creditsFor(code, catalog)
	}

	preferencesText := "None specified"
	if len(req.Preferences) > 0 {
		if data, err := json.MarshalIndent(req.Preferences, "", "  "); err == nil {
			preferencesText = string(data)
		}
	}

	specialRulesText := "None"
	if !program.SpecialRules.Empty() {
		if data, err := json.MarshalIndent(program.SpecialRules, "", "  "); err == nil {
			specialRulesText = string(data)
		}
	}

	specialization := "general CS"
	if v, ok := req.Preferences["specialization"].(string); ok && v != "" {
		specialization = v
	}

	target := targetCredits(req.CreditLoadPreference)

	var b strings.Builder
	fmt.Fprintf(&b, `You are an academic advisor helping a student plan their degree.

STUDENT PROFILE:
- Program: %s (%s)
- Core requirements: %d credits
- Starting: %s %d
- Completed: %d courses (%d credits)
- Interests: %s

COMPLETED COURSES:
%s

CORE DEGREE REQUIREMENTS (%d credits total):
%s

AVAILABLE COURSES (prerequisites met):
%s

PLANNING CONSTRAINTS:
- Credit load: %s (~%d credits/semester preferred)
- Time frame: %d years
- Special program rules: %s

CRITICAL RULES:
1. Never schedule a course in the same semester as one of its prerequisites.
2. Balance workload: mix foundational (100-200 level) with advanced (300-400 level) courses each semester.
3. Year 1 focuses on 100-200 level foundations; years 3-4 on 300-400 level courses aligned with interests (%s).
4. Aim for %d credits per semester and never exceed 18.

Return a %d-semester plan as JSON:
{
  "semesters": [
    {
      "number": 1,
      "term": "FALL",
      "year": 1,
      "courses": [{"code": "...", "title": "...", "credits": 3}],
      "total_credits": 15
    }
  ],
  "warnings": ["Include warnings about course availability, workload, etc."],
  "notes": "Brief explanation of the plan's structure"
}
`,
		program.Name, program.Code,
		program.TotalCredits,
		req.StartingTerm, req.StartingYear,
		len(req.CompletedCourses), completedCredits,
		preferencesText,
		formatCompleted(req.CompletedCourses, catalog),
		program.TotalCredits,
		formatRequirements(program.Requirements, completed, catalog),
		formatAvailable(available, catalog),
		req.CreditLoadPreference, target,
		req.MaxYears,
		specialRulesText,
		specialization,
		target,
		req.MaxYears*2)

	return b.String()
}

func creditsFor(code string, catalog planner.Catalog) int {
	if course, ok := catalog.Course(code); ok {
		return course.Credits
	}
	return defaultCourseCredits
}

func formatCompleted(codes []string, catalog planner.Catalog) string {
	if len(codes) == 0 {
		return "  None"
	}
	lines := make([]string, 0, len(codes))
	for _, code := range codes {
		if course, ok := catalog.Course(code); ok {
			lines = append(lines, fmt.Sprintf("  - %s: %s (%d cr)", code, course.Title, course.Credits))
		} else {
			lines = append(lines, fmt.Sprintf("  - %s: Unknown course (%d cr)", code, defaultCourseCredits))
		}
	}
	return strings.Join(lines, "\n")
}

// formatRequirements emits one status line per requirement in order.
func formatRequirements(reqs []models.Requirement, completed planner.CompletedSet, catalog planner.Catalog) string {
	sorted := make([]models.Requirement, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })

	lines := make([]string, 0, len(sorted))
	for _, req := range sorted {
		var done, remaining []string
		creditsDone := 0
		for _, code := range req.Courses {
			code = planner.NormalizeCode(code)
			if completed.Contains(code) {
				done = append(done, code)
				creditsDone += creditsFor(code, catalog)
			} else {
				remaining = append(remaining, code)
			}
		}
		creditsNeeded := 0
		if req.CreditsNeeded != nil {
			creditsNeeded = *req.CreditsNeeded
		}

		switch req.Type {
		case models.RequirementRequired:
			status := "SATISFIED"
			if len(remaining) > 0 {
				status = fmt.Sprintf("NOT SATISFIED (need: %s)", strings.Join(remaining, ", "))
			}
			lines = append(lines, fmt.Sprintf("- %s (REQUIRED, %d credits): %s", req.Name, creditsNeeded, status))

		case models.RequirementChoice:
			choose := 1
			if req.ChooseCount != nil && *req.ChooseCount > 0 {
				choose = *req.ChooseCount
			}
			status := "SATISFIED"
			if len(done) < choose {
				status = fmt.Sprintf("NOT SATISFIED (need %d more from %d options)", choose-len(done), len(req.Courses))
			}
			lines = append(lines, fmt.Sprintf("- %s (CHOICE, need %d from %d options, %d credits): %s",
				req.Name, choose, len(req.Courses), creditsNeeded, status))

		case models.RequirementLevel:
			status := "SATISFIED"
			if creditsDone < creditsNeeded {
				status = fmt.Sprintf("%d/%d completed", creditsDone, creditsNeeded)
			}
			lines = append(lines, fmt.Sprintf("- %s (LEVEL_REQUIREMENT, %d credits): %s", req.Name, creditsNeeded, status))

		case models.RequirementElective:
			status := "SATISFIED"
			if creditsDone < creditsNeeded {
				status = fmt.Sprintf("%d/%d completed", creditsDone, creditsNeeded)
			}
			lines = append(lines, fmt.Sprintf("- %s (ELECTIVE, %d credits): %s", req.Name, creditsNeeded, status))
		}
	}
	return strings.Join(lines, "\n")
}

// formatAvailable groups the recommender's output by course level.
func formatAvailable(available []planner.AvailableCourse, catalog planner.Catalog) string {
	byLevel := map[string][]planner.AvailableCourse{}
	for _, ac := range available {
		if _, ok := catalog.Course(ac.CourseCode); !ok {
			continue
		}
		byLevel[ac.Level] = append(byLevel[ac.Level], ac)
	}

	levels := make([]string, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	var lines []string
	for _, level := range levels {
		lines = append(lines, fmt.Sprintf("\n%s-level courses:", level))
		for _, ac := range byLevel[level] {
			course, _ := catalog.Course(ac.CourseCode)
			terms := "Any term"
			if len(course.TypicallyOffered) > 0 {
				terms = strings.Join(course.TypicallyOffered, ", ")
			}
			satisfies := "None"
			if len(ac.SatisfiesRequirements) > 0 {
				satisfies = strings.Join(ac.SatisfiesRequirements, ", ")
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s (%d cr, typically: %s, satisfies: %s)",
				ac.CourseCode, course.Title, course.Credits, terms, satisfies))
		}
	}
	return strings.Join(lines, "\n")
}
