package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"gradplan/internal/config"
	"gradplan/internal/models"
	"gradplan/internal/planner"
)

// The plan is regenerated at most once, with the first attempt's
// validation errors appended to the prompt.
const maxGenerationAttempts = 2

const systemPrompt = "You are an expert academic advisor. Always respond with valid JSON only."

// ChatClient is the slice of the OpenAI client the generator needs. Tests
// substitute a stub.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces validated roadmaps. Cache may be nil to disable
// caching.
type Generator struct {
	client ChatClient
	cfg    config.OpenAIConfig
	cache  *Cache
	log    *zap.Logger
	sleep  func(time.Duration)
}

// NewGenerator builds a Generator backed by the real OpenAI client. It
// returns an error when no API key is configured.
func NewGenerator(cfg config.OpenAIConfig, cache *Cache, log *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrGeneration)
	}
	return newGenerator(openai.NewClient(cfg.APIKey), cfg, cache, log), nil
}

func newGenerator(client ChatClient, cfg config.OpenAIConfig, cache *Cache, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Generator{client: client, cfg: cfg, cache: cache, log: log, sleep: time.Sleep}
}

// llmPlan is the JSON document the model is asked to return.
type llmPlan struct {
	Semesters []llmSemester `json:"semesters"`
	Warnings  []string      `json:"warnings"`
	Notes     string        `json:"notes"`
}

type llmSemester struct {
	Number       int         `json:"number"`
	Term         string      `json:"term"`
	Year         int         `json:"year"`
	Courses      []llmCourse `json:"courses"`
	TotalCredits int         `json:"total_credits"`
}

type llmCourse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Credits *int   `json:"credits"`
}

// Generate produces a roadmap for the request. The flow: cache lookup,
// prompt build, LLM call with retry, plan validation against the program's
// requirements, one regeneration with validation feedback, cache store on a
// valid plan. An invalid final plan is still returned, flagged IsValid
// false with the errors in Warnings.
func (g *Generator) Generate(ctx context.Context, req Request, program models.Program, catalog planner.Catalog) (Response, error) {
	req.applyDefaults()

	key := Key(req)
	if g.cache != nil {
		if cached, err := g.cache.Get(key); err != nil {
			g.log.Warn("roadmap cache read failed", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	completed := planner.NewCompletedSet(req.CompletedCourses)
	available, err := planner.NextAvailable(ctx, program, completed, catalog)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	g.log.Info("building roadmap prompt",
		zap.String("program", program.Code),
		zap.Int("available_courses", len(available)))

	basePrompt := buildPrompt(program, req, available, catalog)

	var (
		lastResponse     Response
		validationErrors []string
	)
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		prompt := basePrompt
		if len(validationErrors) > 0 {
			prompt += "\n\nPREVIOUS ATTEMPT HAD ERRORS - PLEASE FIX:\n" + strings.Join(validationErrors, "\n")
		}

		plan, err := g.callModel(ctx, prompt)
		if err != nil {
			return Response{}, err
		}

		semesters := convertSemesters(plan, catalog)
		valid, errs, progress := validatePlan(program, semesters, req.CompletedCourses, catalog)

		resp := assembleResponse(program, req, plan, semesters, progress, valid, errs)
		if valid {
			if g.cache != nil {
				if err := g.cache.Put(key, resp); err != nil {
					g.log.Warn("roadmap cache write failed", zap.Error(err))
				}
			}
			g.log.Info("roadmap generated", zap.String("program", program.Code), zap.Int("attempt", attempt))
			return resp, nil
		}

		g.log.Warn("generated plan failed validation",
			zap.Int("attempt", attempt),
			zap.Strings("errors", errs))
		validationErrors = errs
		lastResponse = resp
	}

	return lastResponse, nil
}

// callModel calls the chat API with exponential backoff on rate limits and
// server errors.
func (g *Generator) callModel(ctx context.Context, prompt string) (llmPlan, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var lastErr error
	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		resp, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			lastErr = err
			if !retryable(err) || attempt == g.cfg.MaxRetries-1 {
				break
			}
			wait := time.Duration(1<<attempt) * time.Second
			g.log.Warn("chat completion failed, retrying",
				zap.Error(err),
				zap.Duration("backoff", wait),
				zap.Int("attempt", attempt+1))
			g.sleep(wait)
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return llmPlan{}, fmt.Errorf("%w: empty model response", ErrGeneration)
		}

		var plan llmPlan
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &plan); err != nil {
			return llmPlan{}, fmt.Errorf("%w: parse model response: %v", ErrGeneration, err)
		}
		return plan, nil
	}

	return llmPlan{}, fmt.Errorf("%w: %v", ErrGeneration, lastErr)
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

// convertSemesters maps the model's plan into response semesters and sorts
// each semester's courses by level then code, foundational courses first.
func convertSemesters(plan llmPlan, catalog planner.Catalog) []SemesterPlan {
	semesters := make([]SemesterPlan, 0, len(plan.Semesters))
	for _, sem := range plan.Semesters {
		courses := make([]CourseInSemester, 0, len(sem.Courses))
		creditSum := 0
		for _, c := range sem.Courses {
			credits := defaultCourseCredits
			if c.Credits != nil {
				credits = *c.Credits
			}
			creditSum += credits
			courses = append(courses, CourseInSemester{
				Code:                  c.Code,
				Title:                 c.Title,
				Credits:               credits,
				SatisfiesRequirements: []string{},
				PrerequisitesMet:      true,
				Warnings:              []string{},
			})
		}

		sort.SliceStable(courses, func(i, j int) bool {
			li, lj := courseLevel(courses[i].Code, catalog), courseLevel(courses[j].Code, catalog)
			if li != lj {
				return li < lj
			}
			return courses[i].Code < courses[j].Code
		})

		total := sem.TotalCredits
		if total == 0 {
			total = creditSum
		}
		semesters = append(semesters, SemesterPlan{
			Number:       sem.Number,
			Term:         sem.Term,
			Year:         sem.Year,
			Courses:      courses,
			TotalCredits: total,
		})
	}
	return semesters
}

// courseLevel sorts unknown courses last.
func courseLevel(code string, catalog planner.Catalog) string {
	if course, ok := catalog.Course(code); ok {
		return course.Level
	}
	return "999"
}

// validatePlan treats completed plus every planned course as the final
// transcript and checks it against the program requirements.
func validatePlan(program models.Program, semesters []SemesterPlan, completedCourses []string, catalog planner.Catalog) (bool, []string, []RequirementProgress) {
	all := make([]string, 0, len(completedCourses))
	all = append(all, completedCourses...)
	for _, sem := range semesters {
		for _, c := range sem.Courses {
			all = append(all, c.Code)
		}
	}

	result := planner.ValidateProgram(program, planner.NewCompletedSet(all), catalog)

	var errs []string
	progress := make([]RequirementProgress, 0, len(result.Requirements))
	for _, req := range result.Requirements {
		if !req.IsSatisfied {
			errs = append(errs, fmt.Sprintf("Requirement '%s' not satisfied: %.0f%% complete",
				req.RequirementName, req.ProgressPercentage))
		}

		needed := 0
		if req.RequiredCount != nil {
			needed = *req.RequiredCount
		}
		planned := req.CompletedCount
		if req.IsSatisfied {
			planned = needed
		}
		var remaining *string
		if !req.IsSatisfied {
			msg := fmt.Sprintf("%d more courses needed", len(req.RemainingCourses))
			remaining = &msg
		}
		progress = append(progress, RequirementProgress{
			RequirementID:    req.RequirementID,
			RequirementName:  req.RequirementName,
			RequirementType:  req.RequirementType,
			CreditsNeeded:    needed,
			CreditsCompleted: req.CompletedCount,
			CreditsPlanned:   planned,
			IsSatisfied:      req.IsSatisfied,
			CoursesUsed:      req.CompletedCourses,
			Remaining:        remaining,
		})
	}
	return len(errs) == 0, errs, progress
}

func assembleResponse(program models.Program, req Request, plan llmPlan, semesters []SemesterPlan, progress []RequirementProgress, valid bool, errs []string) Response {
	total := 0
	for _, sem := range semesters {
		total += sem.TotalCredits
	}

	warnings := plan.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	var graduation *string
	if valid {
		if plan.Notes != "" {
			warnings = append(warnings, "Plan notes: "+plan.Notes)
		}
		if len(semesters) > 0 {
			last := semesters[len(semesters)-1]
			term := fmt.Sprintf("%s %d", capitalize(last.Term), req.StartingYear+last.Year-1)
			graduation = &term
		}
	} else {
		warnings = append(warnings, errs...)
	}

	return Response{
		ProgramCode:         program.Code,
		ProgramName:         program.Name,
		Semesters:           semesters,
		RequirementProgress: progress,
		TotalCredits:        total,
		CreditsNeeded:       program.TotalCredits,
		Warnings:            warnings,
		GraduationTerm:      graduation,
		IsValid:             valid,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
