package models

import (
	"encoding/json"
	"strings"
)

// Formula node type tags as they appear in stored prerequisite JSON:
//
//	{"type": "COURSE", "code": "CMPUT 174"}
//	{"type": "AND"|"OR", "conditions": [ ... ]}
//
// Tags are matched case-insensitively; anything else is an unknown node,
// which evaluators must treat as unsatisfied rather than an error.
const (
	FormulaCourse = "COURSE"
	FormulaAnd    = "AND"
	FormulaOr     = "OR"
)

// Formula is one node of a prerequisite formula tree.
//
// A COURSE leaf normally carries a string Code, but legacy records exist
// where the "code" field holds a nested formula object instead; those decode
// into Nested and are evaluated as if they were the node itself. Whether
// that shape is intentional or a data-entry accident is unresolved, so the
// decoder preserves it rather than rejecting it. A leaf whose code is
// neither a string nor an object sets CodeInvalid.
type Formula struct {
	Type        string
	Code        string
	Nested      *Formula
	CodeInvalid bool
	Conditions  []*Formula

	// rawCode holds the original bytes of an invalid "code" value so the
	// node re-encodes exactly as stored.
	rawCode json.RawMessage
}

// Kind returns the uppercased type tag used for dispatch.
func (f *Formula) Kind() string {
	return strings.ToUpper(f.Type)
}

// And builds an AND node. Intended for tests and fixtures.
func And(children ...*Formula) *Formula {
	return &Formula{Type: FormulaAnd, Conditions: children}
}

// Or builds an OR node. Intended for tests and fixtures.
func Or(children ...*Formula) *Formula {
	return &Formula{Type: FormulaOr, Conditions: children}
}

// CourseRef builds a COURSE leaf. Intended for tests and fixtures.
func CourseRef(code string) *Formula {
	return &Formula{Type: FormulaCourse, Code: code}
}

type rawFormula struct {
	Type       string          `json:"type"`
	Code       json.RawMessage `json:"code,omitempty"`
	Conditions []*Formula      `json:"conditions,omitempty"`
}

// UnmarshalJSON decodes a formula node, accepting a string or a nested
// object in the "code" field. Any other code value marks the leaf invalid
// instead of failing the whole document.
func (f *Formula) UnmarshalJSON(data []byte) error {
	var raw rawFormula
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Type = raw.Type
	f.Conditions = raw.Conditions
	f.Code = ""
	f.Nested = nil
	f.CodeInvalid = false
	f.rawCode = nil

	if len(raw.Code) == 0 || string(raw.Code) == "null" {
		return nil
	}

	var code string
	if err := json.Unmarshal(raw.Code, &code); err == nil {
		f.Code = code
		return nil
	}

	var nested Formula
	if err := json.Unmarshal(raw.Code, &nested); err == nil {
		f.Nested = &nested
		return nil
	}

	f.CodeInvalid = true
	f.rawCode = append(json.RawMessage(nil), raw.Code...)
	return nil
}

// MarshalJSON re-encodes the node in its stored wire shape so that raw
// formulas round-trip through tree nodes and API responses unchanged.
func (f *Formula) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": f.Type}
	switch {
	case f.Nested != nil:
		out["code"] = f.Nested
	case f.CodeInvalid && len(f.rawCode) > 0:
		out["code"] = f.rawCode
	case f.Kind() == FormulaCourse && !f.CodeInvalid:
		out["code"] = f.Code
	}
	if f.Conditions != nil {
		out["conditions"] = f.Conditions
	}
	return json.Marshal(out)
}
