package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradplan/internal/models"
)

func recommendProgram() models.Program {
	return models.Program{
		Code: "major-cs",
		Requirements: []models.Requirement{
			{ID: "req-found", Type: models.RequirementRequired,
				Courses: []string{"CMPUT 174", "CMPUT 175"}, OrderIndex: 0},
			{ID: "req-choice", Type: models.RequirementChoice,
				Courses: []string{"CMPUT 301", "CMPUT 304"}, ChooseCount: intPtr(1), OrderIndex: 1},
		},
	}
}

func TestNextAvailableScoring(t *testing.T) {
	catalog := testCatalog()
	completed := NewCompletedSet([]string{"CMPUT 174"})

	available, err := NextAvailable(context.Background(), recommendProgram(), completed, catalog)
	require.NoError(t, err)

	// CMPUT 174 is completed; 301/304 have no catalog record and are dropped.
	require.Len(t, available, 1)
	top := available[0]
	assert.Equal(t, "CMPUT 175", top.CourseCode)
	assert.True(t, top.PrerequisitesMet)
	assert.Equal(t, []string{"req-found"}, top.SatisfiesRequirements)
	// 10 (required) + 3 (prereqs met) + (600-100)/100.
	assert.InDelta(t, 18.0, top.PriorityScore, 0.001)
}

func TestNextAvailableOrdering(t *testing.T) {
	catalog := NewCatalog([]models.Course{
		{Code: "CMPUT 101", Level: "100", Subject: "CMPUT", Credits: 3},
		{Code: "CMPUT 401", Level: "400", Subject: "CMPUT", Credits: 3},
		{Code: "MATH 101", Level: "100", Subject: "MATH", Credits: 3},
	})
	program := models.Program{
		Requirements: []models.Requirement{
			{ID: "r1", Type: models.RequirementRequired,
				Courses: []string{"CMPUT 101", "CMPUT 401", "MATH 101"}},
		},
	}

	available, err := NextAvailable(context.Background(), program, NewCompletedSet(nil), catalog)
	require.NoError(t, err)
	require.Len(t, available, 3)

	// Same requirement weight, prereqs met everywhere; the level term and
	// the code tie-break decide the order.
	assert.Equal(t, "CMPUT 101", available[0].CourseCode)
	assert.Equal(t, "MATH 101", available[1].CourseCode)
	assert.Equal(t, "CMPUT 401", available[2].CourseCode)
	assert.Equal(t, available[0].PriorityScore, available[1].PriorityScore)
	assert.Greater(t, available[0].PriorityScore, available[2].PriorityScore)
}

func TestNextAvailableLevelRequirementExpandsCandidates(t *testing.T) {
	catalog := NewCatalog([]models.Course{
		{Code: "CMPUT 301", Level: "300", Subject: "CMPUT", Credits: 3},
		{Code: "CMPUT 365", Level: "300", Subject: "CMPUT", Credits: 3},
		{Code: "BIOL 107", Level: "100", Subject: "BIOL", Credits: 3},
	})
	program := models.Program{
		Requirements: []models.Requirement{
			{ID: "r-level", Type: models.RequirementLevel,
				CreditsNeeded: intPtr(6), LevelFilter: []string{"300"}, SubjectFilter: "CMPUT"},
		},
	}

	available, err := NextAvailable(context.Background(), program, NewCompletedSet([]string{"CMPUT 301"}), catalog)
	require.NoError(t, err)

	// The level requirement pulls in matching catalog courses not listed
	// anywhere; completed ones are excluded.
	require.Len(t, available, 1)
	assert.Equal(t, "CMPUT 365", available[0].CourseCode)
	assert.Equal(t, []string{"r-level"}, available[0].SatisfiesRequirements)
}

func TestNextAvailableEmptyCandidates(t *testing.T) {
	program := models.Program{
		Requirements: []models.Requirement{
			{ID: "r1", Type: models.RequirementRequired, Courses: []string{"CMPUT 174"}},
		},
	}
	available, err := NextAvailable(context.Background(), program,
		NewCompletedSet([]string{"CMPUT 174"}), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, []AvailableCourse{}, available)
}

func TestNextAvailableUnmetPrerequisitesStillListed(t *testing.T) {
	program := models.Program{
		Requirements: []models.Requirement{
			{ID: "r1", Type: models.RequirementRequired, Courses: []string{"CMPUT 204"}},
		},
	}
	available, err := NextAvailable(context.Background(), program, NewCompletedSet(nil), testCatalog())
	require.NoError(t, err)

	require.Len(t, available, 1)
	assert.False(t, available[0].PrerequisitesMet)
	// 10 (required) + 0 (prereqs unmet) + (600-200)/100.
	assert.InDelta(t, 14.0, available[0].PriorityScore, 0.001)
}
