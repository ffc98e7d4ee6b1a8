package planner

import (
	"fmt"

	"gradplan/internal/models"
)

// SpecialRulesResult reports what a program's special rules say about a
// concrete course list. Exclusions and substitutions only fire when their
// trigger course is actually present in the list.
type SpecialRulesResult struct {
	ExcludedCourses        []string                  `json:"excluded_courses"`
	Warnings               []string                  `json:"warnings"`
	SubstitutionsNeeded    []models.SubstitutionRule `json:"substitutions_needed"`
	AdditionalRequirements []string                  `json:"additional_requirements"`
}

// ApplySpecialRules evaluates exclusion and substitution rules against a
// course list. An exclusion fires per excluded course only when both the
// trigger and the excluded course are in the list; a substitution fires
// when its From course is in the list. Additional requirements are passed
// through untouched. Rule course codes and list entries are both
// normalized before comparison.
func ApplySpecialRules(program models.Program, courses []string) SpecialRulesResult {
	result := SpecialRulesResult{
		ExcludedCourses:        []string{},
		Warnings:               []string{},
		SubstitutionsNeeded:    []models.SubstitutionRule{},
		AdditionalRequirements: []string{},
	}

	present := NewCompletedSet(courses)

	for _, rule := range program.SpecialRules.Exclusions {
		if !present.Contains(rule.Course) {
			continue
		}
		trigger := NormalizeCode(rule.Course)
		for _, code := range rule.Excludes {
			code = NormalizeCode(code)
			if !present.Contains(code) {
				continue
			}
			result.ExcludedCourses = append(result.ExcludedCourses, code)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("'%s' excludes '%s'. Cannot count both toward degree.", trigger, code))
		}
	}

	for _, rule := range program.SpecialRules.Substitutions {
		if !present.Contains(rule.From) {
			continue
		}
		result.SubstitutionsNeeded = append(result.SubstitutionsNeeded, rule)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("'%s' should be substituted with '%s'", rule.From, rule.To))
	}

	result.AdditionalRequirements = append(result.AdditionalRequirements,
		program.SpecialRules.AdditionalRequirements...)

	return result
}
