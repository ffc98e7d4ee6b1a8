package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradplan/internal/models"
)

func TestEvaluateNilFormula(t *testing.T) {
	ok, missing, satisfied := Evaluate(nil, NewCompletedSet(nil))
	assert.True(t, ok)
	assert.Empty(t, missing)
	assert.Empty(t, satisfied)
}

func TestEvaluateCourseLeaf(t *testing.T) {
	f := models.CourseRef("CMPUT 174")

	ok, missing, satisfied := Evaluate(f, NewCompletedSet([]string{"cmput 174"}))
	assert.True(t, ok)
	assert.Empty(t, missing)
	assert.Equal(t, []string{"CMPUT 174"}, satisfied)

	ok, missing, satisfied = Evaluate(f, NewCompletedSet(nil))
	assert.False(t, ok)
	assert.Equal(t, []string{"CMPUT 174"}, missing)
	assert.Empty(t, satisfied)
}

func TestEvaluateAndCollectsAllMissing(t *testing.T) {
	f := models.And(
		models.CourseRef("CMPUT 174"),
		models.CourseRef("MATH 100"),
		models.CourseRef("STAT 151"),
	)

	ok, missing, satisfied := Evaluate(f, NewCompletedSet([]string{"MATH 100"}))
	assert.False(t, ok)
	// No short-circuit: both failures reported.
	assert.Equal(t, []string{"CMPUT 174", "STAT 151"}, missing)
	assert.Equal(t, []string{"MATH 100"}, satisfied)
}

func TestEvaluateOrFirstSatisfiedWins(t *testing.T) {
	f := models.Or(
		models.CourseRef("MATH 100"),
		models.CourseRef("MATH 114"),
	)

	ok, missing, satisfied := Evaluate(f, NewCompletedSet([]string{"MATH 114"}))
	assert.True(t, ok)
	assert.Empty(t, missing)
	// Only the satisfied branch's codes come back.
	assert.Equal(t, []string{"MATH 114"}, satisfied)

	ok, missing, _ = Evaluate(f, NewCompletedSet(nil))
	assert.False(t, ok)
	assert.Equal(t, []string{"MATH 100", "MATH 114"}, missing)
}

func TestEvaluateNestedCodeLeaf(t *testing.T) {
	inner := models.Or(models.CourseRef("CMPUT 175"), models.CourseRef("CMPUT 274"))
	f := &models.Formula{Type: models.FormulaCourse, Nested: inner}

	ok, _, satisfied := Evaluate(f, NewCompletedSet([]string{"CMPUT 274"}))
	assert.True(t, ok)
	assert.Equal(t, []string{"CMPUT 274"}, satisfied)
}

func TestEvaluateMalformedAndUnknown(t *testing.T) {
	invalid := &models.Formula{Type: models.FormulaCourse, CodeInvalid: true}
	ok, missing, satisfied := Evaluate(invalid, NewCompletedSet([]string{"X 1"}))
	assert.False(t, ok)
	assert.Empty(t, missing)
	assert.Empty(t, satisfied)

	unknown := &models.Formula{Type: "XOR"}
	ok, missing, satisfied = Evaluate(unknown, NewCompletedSet([]string{"X 1"}))
	assert.False(t, ok)
	assert.Empty(t, missing)
	assert.Empty(t, satisfied)
}

func TestExtractCourseCodes(t *testing.T) {
	f := models.And(
		models.CourseRef("MATH 100"),
		models.Or(
			models.CourseRef("CMPUT 174"),
			models.CourseRef("MATH 100"),
			&models.Formula{Type: models.FormulaCourse, Nested: models.CourseRef("CMPUT 274")},
		),
		&models.Formula{Type: models.FormulaCourse, CodeInvalid: true},
	)

	codes := ExtractCourseCodes(f)
	assert.Equal(t, []string{"CMPUT 174", "CMPUT 274", "MATH 100"}, codes)

	assert.Equal(t, []string{}, ExtractCourseCodes(nil))
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		f    *models.Formula
		want string
	}{
		{"nil", nil, NoPrerequisitesDescription},
		{"leaf", models.CourseRef("CMPUT 174"), "CMPUT 174"},
		{
			"and",
			models.And(models.CourseRef("A 1"), models.CourseRef("B 2")),
			"A 1 AND B 2",
		},
		{
			"or inside and is parenthesized",
			models.And(
				models.CourseRef("A 1"),
				models.Or(models.CourseRef("B 2"), models.CourseRef("C 3")),
			),
			"A 1 AND (B 2 OR C 3)",
		},
		{
			"single child collapses",
			models.Or(models.CourseRef("A 1")),
			"A 1",
		},
		{"unknown", &models.Formula{Type: "XOR"}, "Unknown prerequisite formula"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Describe(tc.f))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "CMPUT 174", NormalizeCode("  cmput 174 "))
}
