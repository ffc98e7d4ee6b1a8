package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gradplan/internal/planner"
	"gradplan/internal/roadmap"
)

func (s *Server) handleGenerateRoadmap(c *gin.Context) {
	if s.generator == nil {
		sendError(c, http.StatusServiceUnavailable, codeUnavailable,
			"roadmap generation is not configured", "set OPENAI_API_KEY to enable it")
		return
	}

	var req roadmap.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	program, err := s.store.GetProgram(c.Request.Context(), req.ProgramCode)
	if err != nil {
		s.fail(c, err)
		return
	}
	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.generator.Generate(c.Request.Context(), req, program, catalog)
	if err != nil {
		if errors.Is(err, roadmap.ErrGeneration) {
			sendError(c, http.StatusInternalServerError, codeGeneration,
				"failed to generate roadmap", err.Error())
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleValidateRoadmap applies the credit-count heuristic to a proposed
// semester. Per-slot prerequisite validation is a planned follow-up.
func (s *Server) handleValidateRoadmap(c *gin.Context) {
	var req RoadmapValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	totalCredits := 0
	for _, code := range req.Courses {
		if course, ok := catalog.Course(code); ok {
			totalCredits += course.Credits
		} else {
			totalCredits += 3
		}
	}

	warnings := []string{}
	if totalCredits > 18 {
		warnings = append(warnings, fmt.Sprintf("Heavy course load (%d credits)", totalCredits))
	} else if totalCredits < 9 {
		warnings = append(warnings, fmt.Sprintf("Light course load (%d credits)", totalCredits))
	}

	c.JSON(http.StatusOK, RoadmapValidationResponse{
		IsValid:            true,
		Errors:             []string{},
		Warnings:           warnings,
		TotalCredits:       totalCredits,
		PrerequisiteIssues: []map[string]any{},
	})
}

// handleCheckRequirements reports each requirement's standing for an
// arbitrary course list using the real requirement engine.
func (s *Server) handleCheckRequirements(c *gin.Context) {
	var req RequirementCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	program, err := s.store.GetProgram(c.Request.Context(), req.ProgramCode)
	if err != nil {
		s.fail(c, err)
		return
	}
	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	result := planner.ValidateProgram(program, planner.NewCompletedSet(req.Courses), catalog)

	summaries := make([]RequirementSummary, 0, len(result.Requirements))
	satisfied, partial := 0, 0
	for _, p := range result.Requirements {
		needed := 0
		if p.RequiredCount != nil {
			needed = *p.RequiredCount
		}
		planned := p.CompletedCount
		if p.IsSatisfied {
			planned = needed
			satisfied++
		} else if p.CompletedCount > 0 {
			partial++
		}
		var remaining *string
		if !p.IsSatisfied {
			msg := fmt.Sprintf("%d more courses needed", len(p.RemainingCourses))
			remaining = &msg
		}
		summaries = append(summaries, RequirementSummary{
			RequirementID:    p.RequirementID,
			RequirementName:  p.RequirementName,
			RequirementType:  p.RequirementType,
			CreditsNeeded:    needed,
			CreditsCompleted: p.CompletedCount,
			CreditsPlanned:   planned,
			IsSatisfied:      p.IsSatisfied,
			CoursesUsed:      p.CompletedCourses,
			Remaining:        remaining,
		})
	}

	c.JSON(http.StatusOK, RequirementCheckResponse{
		ProgramCode:    program.Code,
		Requirements:   summaries,
		TotalCredits:   result.TotalCreditsCompleted,
		SatisfiedCount: satisfied,
		PartialCount:   partial,
	})
}
