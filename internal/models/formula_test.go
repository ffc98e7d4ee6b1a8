package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaUnmarshalCourseLeaf(t *testing.T) {
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(`{"type":"COURSE","code":"CMPUT 174"}`), &f))

	assert.Equal(t, FormulaCourse, f.Kind())
	assert.Equal(t, "CMPUT 174", f.Code)
	assert.Nil(t, f.Nested)
	assert.False(t, f.CodeInvalid)
}

func TestFormulaUnmarshalConnectives(t *testing.T) {
	raw := `{
		"type": "AND",
		"conditions": [
			{"type": "COURSE", "code": "CMPUT 174"},
			{"type": "OR", "conditions": [
				{"type": "COURSE", "code": "MATH 100"},
				{"type": "COURSE", "code": "MATH 114"}
			]}
		]
	}`
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	require.Len(t, f.Conditions, 2)
	assert.Equal(t, "CMPUT 174", f.Conditions[0].Code)
	assert.Equal(t, FormulaOr, f.Conditions[1].Kind())
	require.Len(t, f.Conditions[1].Conditions, 2)
}

func TestFormulaUnmarshalNestedCodeObject(t *testing.T) {
	// Legacy records carry a whole formula object inside "code".
	raw := `{"type":"COURSE","code":{"type":"OR","conditions":[
		{"type":"COURSE","code":"CMPUT 175"},
		{"type":"COURSE","code":"CMPUT 274"}
	]}}`
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	require.NotNil(t, f.Nested)
	assert.Equal(t, FormulaOr, f.Nested.Kind())
	assert.Empty(t, f.Code)
	assert.False(t, f.CodeInvalid)
}

func TestFormulaUnmarshalInvalidCode(t *testing.T) {
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(`{"type":"COURSE","code":42}`), &f))
	assert.True(t, f.CodeInvalid)

	var null Formula
	require.NoError(t, json.Unmarshal([]byte(`{"type":"COURSE","code":null}`), &null))
	assert.False(t, null.CodeInvalid)
	assert.Empty(t, null.Code)
}

func TestFormulaCaseInsensitiveKind(t *testing.T) {
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(`{"type":"and","conditions":[]}`), &f))
	assert.Equal(t, FormulaAnd, f.Kind())
}

func TestFormulaRoundTrip(t *testing.T) {
	cases := []string{
		`{"type":"COURSE","code":"CMPUT 174"}`,
		`{"type":"AND","conditions":[{"type":"COURSE","code":"A 1"},{"type":"COURSE","code":"B 2"}]}`,
		`{"type":"COURSE","code":{"type":"OR","conditions":[{"type":"COURSE","code":"C 3"}]}}`,
		`{"type":"COURSE","code":42}`,
		`{"type":"COURSE","code":[1,2]}`,
	}
	for _, raw := range cases {
		var f Formula
		require.NoError(t, json.Unmarshal([]byte(raw), &f))
		out, err := json.Marshal(&f)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestFormulaInvalidCodeSurvivesReEncoding(t *testing.T) {
	var f Formula
	require.NoError(t, json.Unmarshal([]byte(`{"type":"COURSE","code":42}`), &f))
	require.True(t, f.CodeInvalid)

	// Marshal and decode again, as a store write followed by a read does.
	out, err := json.Marshal(&f)
	require.NoError(t, err)

	var again Formula
	require.NoError(t, json.Unmarshal(out, &again))
	assert.True(t, again.CodeInvalid, "malformed-leaf marker must survive re-encoding")
	assert.Empty(t, again.Code)
}
