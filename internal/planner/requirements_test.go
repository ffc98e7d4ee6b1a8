package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradplan/internal/models"
)

func intPtr(v int) *int { return &v }

func progressCatalog() MapCatalog {
	return NewCatalog([]models.Course{
		{Code: "CMPUT 174", Credits: 3, Level: "100", Subject: "CMPUT"},
		{Code: "CMPUT 175", Credits: 3, Level: "100", Subject: "CMPUT"},
		{Code: "CMPUT 201", Credits: 3, Level: "200", Subject: "CMPUT"},
		{Code: "CMPUT 301", Credits: 3, Level: "300", Subject: "CMPUT"},
		{Code: "CMPUT 304", Credits: 3, Level: "300", Subject: "CMPUT"},
		{Code: "MATH 100", Credits: 3, Level: "100", Subject: "MATH"},
	})
}

func TestEvaluateRequiredProgress(t *testing.T) {
	req := models.Requirement{
		ID: "r1", Name: "Foundations", Type: models.RequirementRequired,
		Courses: []string{"CMPUT 174", "CMPUT 175", "CMPUT 201"},
	}

	cases := []struct {
		name      string
		completed []string
		count     int
		satisfied bool
		progress  float64
	}{
		{"none", nil, 0, false, 0},
		{"two of three", []string{"CMPUT 174", "CMPUT 175"}, 2, false, 200.0 / 3},
		{"all", []string{"CMPUT 174", "CMPUT 175", "CMPUT 201"}, 3, true, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := EvaluateRequirement(req, NewCompletedSet(tc.completed), progressCatalog())
			assert.Equal(t, tc.count, p.CompletedCount)
			assert.Equal(t, tc.satisfied, p.IsSatisfied)
			assert.InDelta(t, tc.progress, p.ProgressPercentage, 0.01)
			require.NotNil(t, p.RequiredCount)
			assert.Equal(t, 3, *p.RequiredCount)
		})
	}
}

func TestEvaluateRequiredEmptyListVacuouslySatisfied(t *testing.T) {
	req := models.Requirement{ID: "r0", Type: models.RequirementRequired}
	p := EvaluateRequirement(req, NewCompletedSet(nil), progressCatalog())
	assert.True(t, p.IsSatisfied)
	assert.InDelta(t, 100.0, p.ProgressPercentage, 0.01)
}

func TestEvaluateChoiceProgress(t *testing.T) {
	req := models.Requirement{
		ID: "r2", Name: "Senior options", Type: models.RequirementChoice,
		Courses:     []string{"CMPUT 301", "CMPUT 304", "CMPUT 313", "CMPUT 325", "CMPUT 340"},
		ChooseCount: intPtr(2),
	}

	p := EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 301"}), progressCatalog())
	assert.False(t, p.IsSatisfied)
	assert.Equal(t, 1, p.CompletedCount)
	assert.InDelta(t, 50.0, p.ProgressPercentage, 0.01)
	assert.Equal(t, []string{"CMPUT 304", "CMPUT 313", "CMPUT 325", "CMPUT 340"}, p.RemainingCourses)

	p = EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 301", "CMPUT 304", "CMPUT 313"}), progressCatalog())
	assert.True(t, p.IsSatisfied)
	assert.Equal(t, 3, p.CompletedCount)
	// Progress caps at 100 even past the choose count.
	assert.InDelta(t, 100.0, p.ProgressPercentage, 0.01)
}

func TestEvaluateChoiceDefaultsToOne(t *testing.T) {
	req := models.Requirement{
		ID: "r3", Type: models.RequirementChoice,
		Courses: []string{"CMPUT 301", "CMPUT 304"},
	}
	p := EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 304"}), progressCatalog())
	assert.True(t, p.IsSatisfied)
	require.NotNil(t, p.RequiredCount)
	assert.Equal(t, 1, *p.RequiredCount)
}

func TestEvaluateLevelRequirement(t *testing.T) {
	req := models.Requirement{
		ID: "r4", Name: "Senior CMPUT credits", Type: models.RequirementLevel,
		CreditsNeeded: intPtr(6),
		LevelFilter:   []string{"300", "400"},
		SubjectFilter: "CMPUT",
	}

	// A 200-level course contributes nothing.
	p := EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 201"}), progressCatalog())
	assert.False(t, p.IsSatisfied)
	assert.Equal(t, 0, p.CompletedCount)
	assert.Equal(t, []string{}, p.CompletedCourses)
	assert.Equal(t, []string{}, p.RemainingCourses)

	p = EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 301", "CMPUT 304", "MATH 100"}), progressCatalog())
	assert.True(t, p.IsSatisfied)
	assert.Equal(t, 6, p.CompletedCount)
	assert.Equal(t, []string{"CMPUT 301", "CMPUT 304"}, p.CompletedCourses)
	assert.InDelta(t, 100.0, p.ProgressPercentage, 0.01)
}

func TestEvaluateElective(t *testing.T) {
	req := models.Requirement{ID: "r5", Type: models.RequirementElective}

	p := EvaluateRequirement(req, NewCompletedSet(nil), progressCatalog())
	assert.False(t, p.IsSatisfied)
	assert.InDelta(t, 0.0, p.ProgressPercentage, 0.01)
	assert.Nil(t, p.RequiredCount)

	p = EvaluateRequirement(req, NewCompletedSet([]string{"CMPUT 174"}), progressCatalog())
	assert.True(t, p.IsSatisfied)
	assert.InDelta(t, 100.0, p.ProgressPercentage, 0.01)
}

func TestValidateProgramAggregation(t *testing.T) {
	program := models.Program{
		Code: "major-cs", Name: "BSc Computing Science", TotalCredits: 48,
		Requirements: []models.Requirement{
			{ID: "r2", Name: "Second", Type: models.RequirementRequired,
				Courses: []string{"CMPUT 201"}, OrderIndex: 1},
			{ID: "r1", Name: "First", Type: models.RequirementRequired,
				Courses: []string{"CMPUT 174", "CMPUT 175"}, OrderIndex: 0},
		},
	}

	result := ValidateProgram(program, NewCompletedSet([]string{"CMPUT 174", "CMPUT 175"}), progressCatalog())

	assert.Equal(t, "major-cs", result.ProgramCode)
	assert.Equal(t, 6, result.TotalCreditsCompleted)
	require.Len(t, result.Requirements, 2)
	// Ordered by order_index regardless of input order.
	assert.Equal(t, "r1", result.Requirements[0].RequirementID)
	assert.Equal(t, "r2", result.Requirements[1].RequirementID)
	assert.InDelta(t, 50.0, result.OverallProgress, 0.01)
	assert.False(t, result.IsComplete)

	result = ValidateProgram(program,
		NewCompletedSet([]string{"CMPUT 174", "CMPUT 175", "CMPUT 201"}), progressCatalog())
	assert.InDelta(t, 100.0, result.OverallProgress, 0.01)
	assert.True(t, result.IsComplete)
}

func TestValidateProgramNoRequirements(t *testing.T) {
	program := models.Program{Code: "empty", Name: "Empty"}
	result := ValidateProgram(program, NewCompletedSet(nil), progressCatalog())

	assert.True(t, result.IsComplete)
	assert.InDelta(t, 0.0, result.OverallProgress, 0.01)
}

func TestValidateProgramUnknownCompletedCourseCountsNoCredits(t *testing.T) {
	program := models.Program{
		Code: "major-cs",
		Requirements: []models.Requirement{
			{ID: "r1", Type: models.RequirementRequired, Courses: []string{"XYZ 999"}},
		},
	}
	result := ValidateProgram(program, NewCompletedSet([]string{"XYZ 999"}), progressCatalog())

	// Membership still satisfies the requirement; credits stay zero.
	assert.True(t, result.IsComplete)
	assert.Equal(t, 0, result.TotalCreditsCompleted)
}

func TestCourseSatisfiesRequirement(t *testing.T) {
	catalog := progressCatalog()
	c301, _ := catalog.Course("CMPUT 301")
	c201, _ := catalog.Course("CMPUT 201")
	math, _ := catalog.Course("MATH 100")

	required := models.Requirement{Type: models.RequirementRequired, Courses: []string{"CMPUT 301"}}
	level := models.Requirement{Type: models.RequirementLevel,
		LevelFilter: []string{"300"}, SubjectFilter: "CMPUT"}
	elective := models.Requirement{Type: models.RequirementElective}
	unknown := models.Requirement{Type: models.RequirementType("CAPSTONE")}

	none := NewCompletedSet(nil)
	assert.True(t, CourseSatisfiesRequirement(c301, required, none))
	assert.False(t, CourseSatisfiesRequirement(c201, required, none))
	assert.True(t, CourseSatisfiesRequirement(c301, level, none))
	assert.False(t, CourseSatisfiesRequirement(math, level, none))
	assert.True(t, CourseSatisfiesRequirement(math, elective, none))
	assert.False(t, CourseSatisfiesRequirement(c301, unknown, none))

	// Completed courses never satisfy anything further.
	done := NewCompletedSet([]string{"CMPUT 301"})
	assert.False(t, CourseSatisfiesRequirement(c301, required, done))
	assert.False(t, CourseSatisfiesRequirement(c301, elective, done))
}
