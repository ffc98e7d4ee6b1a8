// Package store persists the course catalog and program definitions in
// SQLite. Structured fields (prerequisite formulas, course lists, filters,
// special rules) are stored as JSON text columns and decoded on read.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"gradplan/internal/models"
	"gradplan/internal/planner"
)

// Not-found sentinels. Handlers map these to 404 responses. The course
// sentinel is shared with the planner so either layer's lookup failure
// matches the same errors.Is check.
var (
	ErrCourseNotFound  = planner.ErrCourseNotFound
	ErrProgramNotFound = errors.New("program not found")
)

// Store wraps the SQLite handle. Safe for concurrent use; SQLite serializes
// writers internally.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Use ":memory:" for an ephemeral database in tests.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection to :memory: would get its own empty
		// database, so keep it to one.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS courses (
	id                   TEXT PRIMARY KEY,
	code                 TEXT NOT NULL UNIQUE,
	title                TEXT NOT NULL,
	credits              INTEGER NOT NULL DEFAULT 0,
	description          TEXT NOT NULL DEFAULT '',
	level                TEXT NOT NULL DEFAULT '',
	subject              TEXT NOT NULL DEFAULT '',
	typically_offered    TEXT NOT NULL DEFAULT '[]',
	prerequisite_formula TEXT
);

CREATE TABLE IF NOT EXISTS programs (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	total_credits INTEGER NOT NULL DEFAULT 0,
	special_rules TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS requirements (
	id               TEXT PRIMARY KEY,
	program_id       TEXT NOT NULL REFERENCES programs(id) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	requirement_type TEXT NOT NULL,
	courses          TEXT NOT NULL DEFAULT '[]',
	credits_needed   INTEGER,
	choose_count     INTEGER,
	level_filter     TEXT NOT NULL DEFAULT '[]',
	subject_filter   TEXT NOT NULL DEFAULT '',
	order_index      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_courses_subject ON courses(subject);
CREATE INDEX IF NOT EXISTS idx_courses_level ON courses(level);
CREATE INDEX IF NOT EXISTS idx_requirements_program ON requirements(program_id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const courseColumns = `id, code, title, credits, description, level, subject, typically_offered, prerequisite_formula`

func scanCourse(row interface{ Scan(...any) error }) (models.Course, error) {
	var (
		c       models.Course
		offered string
		formula sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Credits, &c.Description,
		&c.Level, &c.Subject, &offered, &formula); err != nil {
		return models.Course{}, err
	}
	if err := json.Unmarshal([]byte(offered), &c.TypicallyOffered); err != nil {
		return models.Course{}, fmt.Errorf("decode typically_offered for %s: %w", c.Code, err)
	}
	if c.TypicallyOffered == nil {
		c.TypicallyOffered = []string{}
	}
	if formula.Valid && formula.String != "" && formula.String != "null" {
		var f models.Formula
		if err := json.Unmarshal([]byte(formula.String), &f); err != nil {
			return models.Course{}, fmt.Errorf("decode prerequisite formula for %s: %w", c.Code, err)
		}
		c.Prerequisites = &f
	}
	return c, nil
}

// GetCourse fetches one course by code. The code is normalized first.
func (s *Store) GetCourse(ctx context.Context, code string) (models.Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE code = ?`, planner.NormalizeCode(code))
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, fmt.Errorf("%w: %q", ErrCourseNotFound, planner.NormalizeCode(code))
	}
	if err != nil {
		return models.Course{}, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// CourseFilter narrows ListCourses. Zero values mean no filtering; Page and
// PageSize below one fall back to 1 and DefaultPageSize.
type CourseFilter struct {
	Subject  string
	Level    string
	Term     string
	Page     int
	PageSize int
}

// Pagination bounds.
const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// ListCourses returns one page of courses ordered by code plus the total
// number of courses matching the filter. Subject and level filter in SQL;
// the term filter matches against the JSON-encoded offering list in Go.
func (s *Store) ListCourses(ctx context.Context, filter CourseFilter) ([]models.Course, int, error) {
	where := []string{}
	args := []any{}
	if filter.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, strings.ToUpper(filter.Subject))
	}
	if filter.Level != "" {
		where = append(where, "level = ?")
		args = append(args, filter.Level)
	}

	q := `SELECT ` + courseColumns + ` FROM courses`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY code"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	term := normalizeTerm(filter.Term)
	matched := []models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list courses: %w", err)
		}
		if term != "" && !offeredIn(course, term) {
			continue
		}
		matched = append(matched, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	total := len(matched)
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	start := (page - 1) * size
	if start >= total {
		return []models.Course{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// AllCourses loads the full catalog. The planner works on this snapshot.
func (s *Store) AllCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return courses, nil
}

// Catalog loads every course into an in-memory catalog for the planner.
func (s *Store) Catalog(ctx context.Context) (planner.MapCatalog, error) {
	courses, err := s.AllCourses(ctx)
	if err != nil {
		return nil, err
	}
	return planner.NewCatalog(courses), nil
}

// UpsertCourse inserts or replaces a course keyed by its normalized code.
func (s *Store) UpsertCourse(ctx context.Context, course models.Course) error {
	offered, err := json.Marshal(course.TypicallyOffered)
	if err != nil {
		return fmt.Errorf("encode typically_offered: %w", err)
	}
	var formula any
	if course.Prerequisites != nil {
		data, err := json.Marshal(course.Prerequisites)
		if err != nil {
			return fmt.Errorf("encode prerequisite formula: %w", err)
		}
		formula = string(data)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO courses (id, code, title, credits, description, level, subject, typically_offered, prerequisite_formula)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
	title = excluded.title,
	credits = excluded.credits,
	description = excluded.description,
	level = excluded.level,
	subject = excluded.subject,
	typically_offered = excluded.typically_offered,
	prerequisite_formula = excluded.prerequisite_formula`,
		course.ID, planner.NormalizeCode(course.Code), course.Title, course.Credits,
		course.Description, course.Level, course.Subject, string(offered), formula)
	if err != nil {
		return fmt.Errorf("upsert course %s: %w", course.Code, err)
	}
	return nil
}

// GetProgram fetches a program and its requirements ordered by order_index.
func (s *Store) GetProgram(ctx context.Context, code string) (models.Program, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, total_credits, special_rules FROM programs WHERE code = ?`, code)

	var (
		p     models.Program
		rules string
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.TotalCredits, &rules)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Program{}, fmt.Errorf("%w: %q", ErrProgramNotFound, code)
	}
	if err != nil {
		return models.Program{}, fmt.Errorf("get program: %w", err)
	}
	if err := json.Unmarshal([]byte(rules), &p.SpecialRules); err != nil {
		return models.Program{}, fmt.Errorf("decode special rules for %s: %w", code, err)
	}

	reqs, err := s.requirementsFor(ctx, p.ID)
	if err != nil {
		return models.Program{}, err
	}
	p.Requirements = reqs
	return p, nil
}

func (s *Store) requirementsFor(ctx context.Context, programID string) ([]models.Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, program_id, name, requirement_type, courses, credits_needed, choose_count, level_filter, subject_filter, order_index
FROM requirements WHERE program_id = ? ORDER BY order_index, id`, programID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	defer rows.Close()

	reqs := []models.Requirement{}
	for rows.Next() {
		var (
			r                    models.Requirement
			courses, levelFilter string
			credits, choose      sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.Name, &r.Type, &courses,
			&credits, &choose, &levelFilter, &r.SubjectFilter, &r.OrderIndex); err != nil {
			return nil, fmt.Errorf("load requirements: %w", err)
		}
		if err := json.Unmarshal([]byte(courses), &r.Courses); err != nil {
			return nil, fmt.Errorf("decode courses for requirement %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(levelFilter), &r.LevelFilter); err != nil {
			return nil, fmt.Errorf("decode level_filter for requirement %s: %w", r.ID, err)
		}
		if credits.Valid {
			v := int(credits.Int64)
			r.CreditsNeeded = &v
		}
		if choose.Valid {
			v := int(choose.Int64)
			r.ChooseCount = &v
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	return reqs, nil
}

// ListPrograms returns every program with requirements attached, ordered by
// program code.
func (s *Store) ListPrograms(ctx context.Context) ([]models.Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code FROM programs ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list programs: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list programs: %w", err)
	}
	rows.Close()

	programs := make([]models.Program, 0, len(codes))
	for _, code := range codes {
		p, err := s.GetProgram(ctx, code)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// UpsertProgram inserts or replaces a program and rewrites its requirement
// rows inside one transaction.
func (s *Store) UpsertProgram(ctx context.Context, program models.Program) error {
	rules, err := json.Marshal(program.SpecialRules)
	if err != nil {
		return fmt.Errorf("encode special rules: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert program: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO programs (id, code, name, total_credits, special_rules)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
	name = excluded.name,
	total_credits = excluded.total_credits,
	special_rules = excluded.special_rules`,
		program.ID, program.Code, program.Name, program.TotalCredits, string(rules)); err != nil {
		return fmt.Errorf("upsert program %s: %w", program.Code, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM requirements WHERE program_id = ?`, program.ID); err != nil {
		return fmt.Errorf("clear requirements for %s: %w", program.Code, err)
	}

	for _, req := range program.Requirements {
		courses, err := json.Marshal(req.Courses)
		if err != nil {
			return fmt.Errorf("encode requirement courses: %w", err)
		}
		levelFilter, err := json.Marshal(req.LevelFilter)
		if err != nil {
			return fmt.Errorf("encode level filter: %w", err)
		}
		var credits, choose any
		if req.CreditsNeeded != nil {
			credits = *req.CreditsNeeded
		}
		if req.ChooseCount != nil {
			choose = *req.ChooseCount
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO requirements (id, program_id, name, requirement_type, courses, credits_needed, choose_count, level_filter, subject_filter, order_index)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.ID, program.ID, req.Name, string(req.Type), string(courses),
			credits, choose, string(levelFilter), req.SubjectFilter, req.OrderIndex); err != nil {
			return fmt.Errorf("insert requirement %s: %w", req.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert program: %w", err)
	}
	s.log.Debug("program upserted",
		zap.String("code", program.Code),
		zap.Int("requirements", len(program.Requirements)))
	return nil
}

func normalizeTerm(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(term)
	return string(unicode.ToUpper(first)) + strings.ToLower(term[size:])
}

func offeredIn(course models.Course, term string) bool {
	for _, t := range course.TypicallyOffered {
		if t == term {
			return true
		}
	}
	return false
}
