// Package planner implements the academic-requirement reasoning engine:
// prerequisite formula evaluation, prerequisite tree building, requirement
// progress tracking, special program rules, and next-course recommendation.
//
// Every function here is a pure computation over an immutable catalog and
// program snapshot supplied by the caller. The package performs no I/O; the
// store loads data before any of these functions run, and concurrent
// evaluations over the same snapshot are safe.
package planner

import (
	"errors"
	"sort"
	"strings"

	"gradplan/internal/models"
)

// ErrCourseNotFound signals that the course named by the caller does not
// exist in the catalog. Only the explicit subject of a call gets this
// treatment; missing courses referenced from formulas are skipped silently.
var ErrCourseNotFound = errors.New("course not found")

// Catalog is a read-only lookup of course records by code.
type Catalog interface {
	// Course returns the course for a code, normalizing the code first.
	Course(code string) (models.Course, bool)
	// Courses returns every course in the catalog, ordered by code.
	Courses() []models.Course
}

// MapCatalog is an in-memory Catalog keyed by normalized course code.
type MapCatalog map[string]models.Course

// NewCatalog builds a MapCatalog from a course list. Later duplicates of
// the same normalized code win.
func NewCatalog(courses []models.Course) MapCatalog {
	c := make(MapCatalog, len(courses))
	for _, course := range courses {
		c[NormalizeCode(course.Code)] = course
	}
	return c
}

func (c MapCatalog) Course(code string) (models.Course, bool) {
	course, ok := c[NormalizeCode(code)]
	return course, ok
}

func (c MapCatalog) Courses() []models.Course {
	out := make([]models.Course, 0, len(c))
	for _, course := range c {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormalizeCode uppercases and trims a course code. This is the single
// normalization applied everywhere codes are compared.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CompletedSet is the normalized set of course codes a student has finished.
type CompletedSet map[string]struct{}

// NewCompletedSet normalizes each code once at construction.
func NewCompletedSet(codes []string) CompletedSet {
	s := make(CompletedSet, len(codes))
	for _, code := range codes {
		s[NormalizeCode(code)] = struct{}{}
	}
	return s
}

// Contains reports membership after normalizing the probe.
func (s CompletedSet) Contains(code string) bool {
	_, ok := s[NormalizeCode(code)]
	return ok
}

// Sorted returns the member codes in ascending order.
func (s CompletedSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// sortedUnique sorts a slice of codes and drops duplicates.
func sortedUnique(codes []string) []string {
	if len(codes) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
