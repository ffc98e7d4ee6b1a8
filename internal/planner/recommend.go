package planner

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"gradplan/internal/models"
)

// Priority score weights. The level term rewards foundational courses:
// a 100-level course earns 5.0, a 600-level course 0.0.
const (
	scoreRequired  = 10.0
	scoreChoice    = 5.0
	scoreOther     = 2.0
	scorePrereqMet = 3.0
	levelCeiling   = 600.0
)

// scoreConcurrency bounds the parallel candidate scoring fan-out.
const scoreConcurrency = 8

// AvailableCourse is one recommendation: a course the student has not
// taken, scored for ordering.
type AvailableCourse struct {
	CourseCode            string   `json:"course_code"`
	Title                 string   `json:"title"`
	Credits               int      `json:"credits"`
	Level                 string   `json:"level"`
	PrerequisitesMet      bool     `json:"prerequisites_met"`
	SatisfiesRequirements []string `json:"satisfies_requirements"`
	PriorityScore         float64  `json:"priority_score"`
	TypicallyOffered      []string `json:"typically_offered"`
}

// NextAvailable recommends the courses a student should consider next for a
// program. Candidates are every course named by a requirement plus every
// catalog course matching a LEVEL_REQUIREMENT's filters, minus courses
// already completed; candidates with no catalog record are dropped. Each
// candidate is scored additively per satisfied requirement, for met
// prerequisites, and inversely by course level, then sorted by descending
// score with course code breaking ties.
func NextAvailable(ctx context.Context, program models.Program, completed CompletedSet, catalog Catalog) ([]AvailableCourse, error) {
	candidates := candidateCodes(program, completed, catalog)
	if len(candidates) == 0 {
		return []AvailableCourse{}, nil
	}

	results := make([]*AvailableCourse, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i, code := range candidates {
		i, code := i, code
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			course, ok := catalog.Course(code)
			if !ok {
				return nil
			}
			ac := scoreCandidate(course, program, completed, catalog)
			results[i] = &ac
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	available := make([]AvailableCourse, 0, len(results))
	for _, r := range results {
		if r != nil {
			available = append(available, *r)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].PriorityScore != available[j].PriorityScore {
			return available[i].PriorityScore > available[j].PriorityScore
		}
		return available[i].CourseCode < available[j].CourseCode
	})

	return available, nil
}

// candidateCodes collects the sorted union of requirement-listed courses and
// catalog courses matching LEVEL_REQUIREMENT filters, excluding completions.
func candidateCodes(program models.Program, completed CompletedSet, catalog Catalog) []string {
	seen := make(map[string]struct{})
	for _, req := range program.Requirements {
		for _, code := range req.Courses {
			seen[NormalizeCode(code)] = struct{}{}
		}
	}

	hasLevelReq := false
	for _, req := range program.Requirements {
		if req.Type == models.RequirementLevel {
			hasLevelReq = true
			break
		}
	}
	if hasLevelReq {
		for _, course := range catalog.Courses() {
			for _, req := range program.Requirements {
				if req.Type == models.RequirementLevel && matchesFilters(course, req) {
					seen[NormalizeCode(course.Code)] = struct{}{}
					break
				}
			}
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		if !completed.Contains(code) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

func scoreCandidate(course models.Course, program models.Program, completed CompletedSet, catalog Catalog) AvailableCourse {
	prereqsMet := false
	if check, err := CheckPrerequisites(course.Code, completed, catalog); err == nil {
		prereqsMet = check.IsSatisfied
	}

	satisfies := []string{}
	score := 0.0
	for _, req := range program.Requirements {
		if !CourseSatisfiesRequirement(course, req, completed) {
			continue
		}
		satisfies = append(satisfies, req.ID)
		switch req.Type {
		case models.RequirementRequired:
			score += scoreRequired
		case models.RequirementChoice:
			score += scoreChoice
		default:
			score += scoreOther
		}
	}

	if prereqsMet {
		score += scorePrereqMet
	}

	level := 0
	if n, err := strconv.Atoi(course.Level); err == nil && n >= 0 {
		level = n
	}
	score += (levelCeiling - float64(level)) / 100

	offered := course.TypicallyOffered
	if offered == nil {
		offered = []string{}
	}

	return AvailableCourse{
		CourseCode:            course.Code,
		Title:                 course.Title,
		Credits:               course.Credits,
		Level:                 course.Level,
		PrerequisitesMet:      prereqsMet,
		SatisfiesRequirements: satisfies,
		PriorityScore:         score,
		TypicallyOffered:      offered,
	}
}
