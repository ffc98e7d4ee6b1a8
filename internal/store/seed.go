package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gradplan/internal/models"
)

// seedFile is the YAML shape of a catalog fixture.
type seedFile struct {
	Courses  []seedCourse  `yaml:"courses"`
	Programs []seedProgram `yaml:"programs"`
}

type seedCourse struct {
	ID               string   `yaml:"id"`
	Code             string   `yaml:"code"`
	Title            string   `yaml:"title"`
	Credits          int      `yaml:"credits"`
	Description      string   `yaml:"description"`
	Level            string   `yaml:"level"`
	Subject          string   `yaml:"subject"`
	TypicallyOffered []string `yaml:"typically_offered"`
	Prerequisites    any      `yaml:"prerequisite_formula"`
}

type seedProgram struct {
	ID           string            `yaml:"id"`
	Code         string            `yaml:"code"`
	Name         string            `yaml:"name"`
	TotalCredits int               `yaml:"total_credits"`
	Requirements []seedRequirement `yaml:"requirements"`
	SpecialRules any               `yaml:"special_rules"`
}

type seedRequirement struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Type          string   `yaml:"requirement_type"`
	Courses       []string `yaml:"courses"`
	CreditsNeeded *int     `yaml:"credits_needed"`
	ChooseCount   *int     `yaml:"choose_count"`
	LevelFilter   []string `yaml:"level_filter"`
	SubjectFilter string   `yaml:"subject_filter"`
	OrderIndex    int      `yaml:"order_index"`
}

// Seed loads a YAML fixture and upserts its courses and programs. Records
// without IDs get fresh UUIDs. Prerequisite formulas and special rules are
// free-form YAML maps validated by a round-trip through their JSON codecs.
func (s *Store) Seed(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, sc := range seed.Courses {
		course, err := sc.toModel()
		if err != nil {
			return err
		}
		if err := s.UpsertCourse(ctx, course); err != nil {
			return err
		}
	}

	for _, sp := range seed.Programs {
		program, err := sp.toModel()
		if err != nil {
			return err
		}
		if err := s.UpsertProgram(ctx, program); err != nil {
			return err
		}
	}

	s.log.Info("seed applied",
		zap.String("path", path),
		zap.Int("courses", len(seed.Courses)),
		zap.Int("programs", len(seed.Programs)))
	return nil
}

func (sc seedCourse) toModel() (models.Course, error) {
	course := models.Course{
		ID:               sc.ID,
		Code:             sc.Code,
		Title:            sc.Title,
		Credits:          sc.Credits,
		Description:      sc.Description,
		Level:            sc.Level,
		Subject:          sc.Subject,
		TypicallyOffered: sc.TypicallyOffered,
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.TypicallyOffered == nil {
		course.TypicallyOffered = []string{}
	}
	if sc.Prerequisites != nil {
		formula, err := decodeVia[models.Formula](sc.Prerequisites)
		if err != nil {
			return models.Course{}, fmt.Errorf("course %s: prerequisite formula: %w", sc.Code, err)
		}
		course.Prerequisites = formula
	}
	return course, nil
}

func (sp seedProgram) toModel() (models.Program, error) {
	program := models.Program{
		ID:           sp.ID,
		Code:         sp.Code,
		Name:         sp.Name,
		TotalCredits: sp.TotalCredits,
	}
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if sp.SpecialRules != nil {
		rules, err := decodeVia[models.SpecialRules](sp.SpecialRules)
		if err != nil {
			return models.Program{}, fmt.Errorf("program %s: special rules: %w", sp.Code, err)
		}
		program.SpecialRules = *rules
	}
	for i, sr := range sp.Requirements {
		req := models.Requirement{
			ID:            sr.ID,
			ProgramID:     program.ID,
			Name:          sr.Name,
			Type:          models.RequirementType(sr.Type),
			Courses:       sr.Courses,
			CreditsNeeded: sr.CreditsNeeded,
			ChooseCount:   sr.ChooseCount,
			LevelFilter:   sr.LevelFilter,
			SubjectFilter: sr.SubjectFilter,
			OrderIndex:    sr.OrderIndex,
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		if req.Courses == nil {
			req.Courses = []string{}
		}
		if req.LevelFilter == nil {
			req.LevelFilter = []string{}
		}
		if req.OrderIndex == 0 {
			req.OrderIndex = i
		}
		program.Requirements = append(program.Requirements, req)
	}
	return program, nil
}

// decodeVia re-encodes a free-form YAML value as JSON and decodes it into T,
// so YAML fixtures go through the same codecs as stored records.
func decodeVia[T any](v any) (*T, error) {
	data, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeYAML rewrites map[any]any keys (as older YAML decoders produce)
// into map[string]any so the value is JSON-encodable.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
