package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlanSchema() *Schema {
	return Object("plan",
		Required("overview", NonEmptyString()),
		Required("features", Array(NonEmptyString(), 1)),
		Optional("notes", NonEmptyString()),
	)
}

func testFilesSchema() *Schema {
	return Map("files", NonEmptyString(), NonEmptyString())
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name      string
		schema    *Schema
		input     string
		wantErr   bool
		wantPaths []string
	}{
		{
			name:   "valid object",
			schema: testPlanSchema(),
			input:  `{"overview":"todo app","features":["add","remove"]}`,
		},
		{
			name:   "unknown fields ignored",
			schema: testPlanSchema(),
			input:  `{"overview":"x","features":["a"],"extra":1}`,
		},
		{
			name:      "missing required field",
			schema:    testPlanSchema(),
			input:     `{"features":["a"]}`,
			wantErr:   true,
			wantPaths: []string{"$.overview"},
		},
		{
			name:      "empty string and empty array",
			schema:    testPlanSchema(),
			input:     `{"overview":"","features":[]}`,
			wantErr:   true,
			wantPaths: []string{"$.overview", "$.features"},
		},
		{
			name:      "empty array item",
			schema:    testPlanSchema(),
			input:     `{"overview":"x","features":["ok",""]}`,
			wantErr:   true,
			wantPaths: []string{"$.features[1]"},
		},
		{
			name:      "wrong type",
			schema:    testPlanSchema(),
			input:     `{"overview":3,"features":"a"}`,
			wantErr:   true,
			wantPaths: []string{"$.overview", "$.features"},
		},
		{
			name:      "optional field still validated when present",
			schema:    testPlanSchema(),
			input:     `{"overview":"x","features":["a"],"notes":""}`,
			wantErr:   true,
			wantPaths: []string{"$.notes"},
		},
		{
			name:   "empty file map is valid",
			schema: testFilesSchema(),
			input:  `{}`,
		},
		{
			name:   "valid file map",
			schema: testFilesSchema(),
			input:  `{"app/page.tsx":"export default 1","README.md":"# hi"}`,
		},
		{
			name:      "file map with empty content",
			schema:    testFilesSchema(),
			input:     `{"a.txt":"","b.txt":"ok"}`,
			wantErr:   true,
			wantPaths: []string{`$["a.txt"]`},
		},
		{
			name:      "file map with empty key",
			schema:    testFilesSchema(),
			input:     `{"":"content"}`,
			wantErr:   true,
			wantPaths: []string{`$[""]<key>`},
		},
		{
			name:      "file map with non-string value",
			schema:    testFilesSchema(),
			input:     `{"a.txt":{"nested":true}}`,
			wantErr:   true,
			wantPaths: []string{`$["a.txt"]`},
		},
		{
			name:      "not JSON",
			schema:    testFilesSchema(),
			input:     `here are your files`,
			wantErr:   true,
			wantPaths: []string{"$"},
		},
		{
			name:      "trailing data",
			schema:    testFilesSchema(),
			input:     `{} {}`,
			wantErr:   true,
			wantPaths: []string{"$"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.ValidateJSON([]byte(tt.input))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			paths := make([]string, 0, len(verr.Violations))
			for _, v := range verr.Violations {
				paths = append(paths, v.Path)
			}
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := testPlanSchema().ValidateJSON([]byte(`{"features":["a"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan does not conform to schema")
	assert.Contains(t, err.Error(), "$.overview: required field missing")
}

func TestJSONSchema(t *testing.T) {
	plan := testPlanSchema().JSONSchema()
	assert.Equal(t, "object", plan["type"])
	assert.Equal(t, []string{"overview", "features"}, plan["required"])
	assert.Equal(t, []string{"overview", "features", "notes"}, plan["propertyOrdering"])

	props := plan["properties"].(map[string]any)
	features := props["features"].(map[string]any)
	assert.Equal(t, "array", features["type"])
	assert.Equal(t, 1, features["minItems"])
	assert.Equal(t, map[string]any{"type": "string", "minLength": 1}, features["items"])

	files := testFilesSchema().JSONSchema()
	assert.Equal(t, map[string]any{
		"title":                "files",
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string", "minLength": 1},
		"propertyNames":        map[string]any{"minLength": 1},
	}, files)
}

func TestTag(t *testing.T) {
	assert.Equal(t, "min=1", NonEmptyString().Tag())
	assert.Equal(t, "min=3", String(3).Tag())
	assert.Equal(t, "", String(0).Tag())
	assert.Equal(t, "min=2", Array(NonEmptyString(), 2).Tag())
	assert.Equal(t, "", testFilesSchema().Tag())

	// rune count, not bytes
	assert.NoError(t, Object("x", Required("s", String(2))).Validate(map[string]any{"s": "日本"}))
	assert.Error(t, Object("x", Required("s", String(3))).Validate(map[string]any{"s": "日本"}))
}
