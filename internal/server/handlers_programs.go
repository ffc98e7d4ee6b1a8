package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gradplan/internal/planner"
)

func (s *Server) handleListPrograms(c *gin.Context) {
	programs, err := s.store.ListPrograms(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ProgramListResponse{Programs: programs, Total: len(programs)})
}

func (s *Server) handleGetProgram(c *gin.Context) {
	program, err := s.store.GetProgram(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (s *Server) handleValidateProgram(c *gin.Context) {
	var req CompletedCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	program, err := s.store.GetProgram(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	result := planner.ValidateProgram(program, planner.NewCompletedSet(req.CompletedCourses), catalog)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleNextCourses(c *gin.Context) {
	var req CompletedCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	program, err := s.store.GetProgram(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	available, err := planner.NextAvailable(c.Request.Context(), program, planner.NewCompletedSet(req.CompletedCourses), catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"program_code": program.Code,
		"courses":      available,
		"total":        len(available),
	})
}

func (s *Server) handleSpecialRules(c *gin.Context) {
	var req CourseListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	program, err := s.store.GetProgram(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, planner.ApplySpecialRules(program, req.Courses))
}
