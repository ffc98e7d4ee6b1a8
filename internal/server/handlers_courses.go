package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradplan/internal/planner"
	"gradplan/internal/store"
)

func (s *Server) handleListCourses(c *gin.Context) {
	filter := store.CourseFilter{
		Subject: c.Query("subject"),
		Level:   c.Query("level"),
		Term:    c.Query("term"),
		Page:    intQuery(c, "page", 1),
	}
	filter.PageSize = intQuery(c, "page_size", store.DefaultPageSize)

	courses, total, err := s.store.ListCourses(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = store.DefaultPageSize
	}
	if size > store.MaxPageSize {
		size = store.MaxPageSize
	}
	c.JSON(http.StatusOK, CourseListResponse{
		Courses:  courses,
		Total:    total,
		Page:     page,
		PageSize: size,
	})
}

func (s *Server) handleGetCourse(c *gin.Context) {
	course, err := s.store.GetCourse(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) handleCheckPrerequisites(c *gin.Context) {
	var req CompletedCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err.Error())
		return
	}

	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := planner.CheckPrerequisites(c.Param("code"), planner.NewCompletedSet(req.CompletedCourses), catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePrerequisiteTree(c *gin.Context) {
	maxDepth := intQuery(c, "max_depth", planner.DefaultMaxDepth)

	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	tree, err := planner.BuildTree(c.Param("code"), catalog, maxDepth)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
