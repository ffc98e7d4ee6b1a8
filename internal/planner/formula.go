package planner

import (
	"strings"

	"go.uber.org/zap"

	"gradplan/internal/models"
)

// NoPrerequisitesDescription is the rendering of an absent formula.
const NoPrerequisitesDescription = "No prerequisites required"

// Evaluate recursively checks a prerequisite formula against a completed
// set. It returns overall satisfaction plus the missing and satisfied
// course codes collected along the way.
//
// AND nodes evaluate every child even after a failure so that all missing
// codes are reported. OR nodes evaluate children in declaration order and
// stop at the first satisfied child, returning only that child's satisfied
// codes; the missing lists of earlier failed branches are discarded. A nil
// formula is trivially satisfied. Unknown node types and malformed leaves
// evaluate to unsatisfied with empty lists, never an error.
func Evaluate(f *models.Formula, completed CompletedSet) (bool, []string, []string) {
	if f == nil {
		return true, nil, nil
	}

	switch f.Kind() {
	case models.FormulaCourse:
		if f.Nested != nil {
			// Legacy shape: the leaf's code holds a nested formula.
			return Evaluate(f.Nested, completed)
		}
		if f.CodeInvalid {
			zap.L().Warn("invalid course code in prerequisite formula")
			return false, nil, nil
		}
		if completed.Contains(f.Code) {
			return true, nil, []string{f.Code}
		}
		return false, []string{f.Code}, nil

	case models.FormulaAnd:
		ok := true
		var missing, satisfied []string
		for _, child := range f.Conditions {
			childOK, childMissing, childSatisfied := Evaluate(child, completed)
			if !childOK {
				ok = false
			}
			missing = append(missing, childMissing...)
			satisfied = append(satisfied, childSatisfied...)
		}
		return ok, missing, satisfied

	case models.FormulaOr:
		var missing []string
		for _, child := range f.Conditions {
			childOK, childMissing, childSatisfied := Evaluate(child, completed)
			if childOK {
				return true, nil, childSatisfied
			}
			missing = append(missing, childMissing...)
		}
		return false, missing, nil

	default:
		return false, nil, nil
	}
}

// ExtractCourseCodes flattens every course code referenced by the formula,
// deduplicated and sorted. Malformed leaves contribute nothing; nested
// course-leaf formulas are flattened like any other subtree.
func ExtractCourseCodes(f *models.Formula) []string {
	return sortedUnique(collectCodes(f, nil))
}

func collectCodes(f *models.Formula, codes []string) []string {
	if f == nil {
		return codes
	}
	switch f.Kind() {
	case models.FormulaCourse:
		if f.Nested != nil {
			return collectCodes(f.Nested, codes)
		}
		if !f.CodeInvalid && f.Code != "" {
			codes = append(codes, f.Code)
		}
	case models.FormulaAnd, models.FormulaOr:
		for _, child := range f.Conditions {
			codes = collectCodes(child, codes)
		}
	}
	return codes
}

// Describe renders a formula as human-readable text. AND children are
// joined with " AND ", parenthesizing any child whose own rendering
// contains " OR "; OR is symmetric. A single-child connective renders as
// the child alone.
func Describe(f *models.Formula) string {
	if f == nil {
		return NoPrerequisitesDescription
	}

	switch f.Kind() {
	case models.FormulaCourse:
		if f.Nested != nil {
			return Describe(f.Nested)
		}
		if f.Code == "" {
			return "Unknown course"
		}
		return f.Code

	case models.FormulaAnd:
		return describeJoin(f.Conditions, " AND ", " OR ")

	case models.FormulaOr:
		return describeJoin(f.Conditions, " OR ", " AND ")

	default:
		return "Unknown prerequisite formula"
	}
}

func describeJoin(children []*models.Formula, sep, wrapIfContains string) string {
	descriptions := make([]string, 0, len(children))
	for _, child := range children {
		descriptions = append(descriptions, Describe(child))
	}
	if len(descriptions) == 1 {
		return descriptions[0]
	}
	for i, d := range descriptions {
		if strings.Contains(d, wrapIfContains) {
			descriptions[i] = "(" + d + ")"
		}
	}
	return strings.Join(descriptions, sep)
}
