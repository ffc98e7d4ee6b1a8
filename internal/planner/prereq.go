package planner

import (
	"fmt"
	"maps"

	"gradplan/internal/models"
)

// DefaultMaxDepth bounds prerequisite tree traversal when the caller does
// not ask for a specific depth.
const DefaultMaxDepth = 5

// PrerequisiteCheckResult reports whether a course's prerequisite formula
// is satisfied by a completed set. Missing and satisfied lists are sorted
// and deduplicated.
type PrerequisiteCheckResult struct {
	IsSatisfied      bool     `json:"is_satisfied"`
	MissingCourses   []string `json:"missing_courses"`
	SatisfiedCourses []string `json:"satisfied_courses"`
	Description      string   `json:"formula_description"`
}

// PrerequisiteTreeNode is one node of the prerequisite tree built for
// visualization. Formula carries the node's own raw formula; it is nil on
// nodes where traversal stopped (depth limit or cycle).
type PrerequisiteTreeNode struct {
	CourseCode    string                  `json:"course_code"`
	Title         string                  `json:"title"`
	Depth         int                     `json:"depth"`
	Prerequisites []*PrerequisiteTreeNode `json:"prerequisites"`
	Formula       *models.Formula         `json:"formula,omitempty"`
}

// CheckPrerequisites evaluates the named course's prerequisite formula
// against the completed set.
//
// The target course must exist in the catalog; that is the only NotFound
// condition surfaced here. Codes referenced inside the formula are matched
// purely against the completed set and are never resolved.
func CheckPrerequisites(courseCode string, completed CompletedSet, catalog Catalog) (PrerequisiteCheckResult, error) {
	course, ok := catalog.Course(courseCode)
	if !ok {
		return PrerequisiteCheckResult{}, fmt.Errorf("%w: %q", ErrCourseNotFound, NormalizeCode(courseCode))
	}

	if course.Prerequisites == nil {
		return PrerequisiteCheckResult{
			IsSatisfied:      true,
			MissingCourses:   []string{},
			SatisfiedCourses: []string{},
			Description:      NoPrerequisitesDescription,
		}, nil
	}

	satisfied, missing, have := Evaluate(course.Prerequisites, completed)
	return PrerequisiteCheckResult{
		IsSatisfied:      satisfied,
		MissingCourses:   sortedUnique(missing),
		SatisfiedCourses: sortedUnique(have),
		Description:      Describe(course.Prerequisites),
	}, nil
}

// BuildTree builds a depth- and cycle-bounded prerequisite tree rooted at
// courseCode. The root must exist in the catalog; referenced courses that
// do not resolve are skipped. maxDepth values below one fall back to
// DefaultMaxDepth.
func BuildTree(courseCode string, catalog Catalog, maxDepth int) (*PrerequisiteTreeNode, error) {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return buildTree(courseCode, catalog, 0, maxDepth, CompletedSet{})
}

func buildTree(courseCode string, catalog Catalog, depth, maxDepth int, visited CompletedSet) (*PrerequisiteTreeNode, error) {
	course, ok := catalog.Course(courseCode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, NormalizeCode(courseCode))
	}

	node := &PrerequisiteTreeNode{
		CourseCode:    course.Code,
		Title:         course.Title,
		Depth:         depth,
		Prerequisites: []*PrerequisiteTreeNode{},
	}

	// Structural stop: depth limit reached or this course already appears
	// on the current path. Not an error; the node simply has no children.
	if depth >= maxDepth || visited.Contains(course.Code) {
		return node, nil
	}

	node.Formula = course.Prerequisites

	// Each branch explores with its own copy of the path so a course
	// reachable via two different paths can appear in both subtrees.
	branch := maps.Clone(visited)
	branch[NormalizeCode(course.Code)] = struct{}{}

	for _, code := range ExtractCourseCodes(course.Prerequisites) {
		child, err := buildTree(code, catalog, depth+1, maxDepth, branch)
		if err != nil {
			// Referenced course is not in the catalog; skip it.
			continue
		}
		node.Prerequisites = append(node.Prerequisites, child)
	}

	return node, nil
}
