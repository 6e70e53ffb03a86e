package app

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/fetchchain/internal/chain"
	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/utils"
)

// TestParseShape tests the ParseShape function.
func TestParseShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input       string
		expected    Shape
		expectedErr error
	}{
		{input: "", expected: ShapeText},
		{input: "text", expected: ShapeText},
		{input: "JSON", expected: ShapeJSON},
		{input: " blob ", expected: ShapeBlob},
		{input: "form", expected: ShapeForm},
		{input: "bytes", expected: ShapeBytes},
		{input: "xml", expectedErr: ErrUnknownShape},
	}

	for _, tt := range tests {
		t.Run("shape "+tt.input, func(t *testing.T) {
			t.Parallel()

			shape, err := ParseShape(tt.input)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, shape)
		})
	}
}

// TestNewRequestPlan tests flag validation.
func TestNewRequestPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		flags       RequestFlags
		expectedErr error
		expectedMsg string
	}{
		{
			name:        "unsupported method",
			method:      http.MethodOptions,
			expectedErr: ErrUnsupportedMethod,
		},
		{
			name:        "unknown shape",
			method:      http.MethodGet,
			flags:       RequestFlags{As: "csv"},
			expectedErr: ErrUnknownShape,
		},
		{
			name:        "json and form together",
			method:      http.MethodPost,
			flags:       RequestFlags{JSON: "{}", Form: []string{"a=1"}},
			expectedErr: ErrConflictingBodies,
		},
		{
			name:        "json and yaml together",
			method:      http.MethodPost,
			flags:       RequestFlags{JSON: "{}", YAMLFile: "body.yaml"},
			expectedErr: ErrConflictingBodies,
		},
		{
			name:        "header without colon",
			method:      http.MethodGet,
			flags:       RequestFlags{Headers: []string{"X-Broken"}},
			expectedErr: utils.ErrMissingSeparator,
		},
		{
			name:        "query without equals",
			method:      http.MethodGet,
			flags:       RequestFlags{Query: []string{"a"}},
			expectedErr: utils.ErrMissingSeparator,
		},
		{
			name:        "form with empty key",
			method:      http.MethodPost,
			flags:       RequestFlags{Form: []string{"=v"}},
			expectedErr: utils.ErrEmptyKey,
		},
		{
			name:        "invalid json",
			method:      http.MethodPost,
			flags:       RequestFlags{JSON: "{"},
			expectedErr: ErrInvalidJSONBody,
		},
		{
			name:        "missing yaml file",
			method:      http.MethodPost,
			flags:       RequestFlags{YAMLFile: "/non/existing.yaml"},
			expectedMsg: "failed to read YAML body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newRequestPlan(tt.method, tt.flags)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.ErrorContains(t, err, tt.expectedMsg)
		})
	}
}

// TestNewRequestPlan_Fields tests the parsed plan.
func TestNewRequestPlan_Fields(t *testing.T) {
	t.Parallel()

	yamlPath := filepath.Join(t.TempDir(), "body.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("a: 1\n"), 0o600))

	plan, err := newRequestPlan("patch", RequestFlags{
		Headers:  []string{"X-A: 1"},
		Query:    []string{"b=1", "a=x", "b=2"},
		Accept:   " text/plain ",
		YAMLFile: yamlPath,
		As:       "json",
		Select:   "$.items[0]",
		Timeout:  time.Second,
		Fail:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, plan.method)
	assert.Equal(t, []utils.KeyValue{{Key: "X-A", Value: "1"}}, plan.headers)
	assert.Equal(t, []chain.Param{chain.P("b", []string{"1", "2"}), chain.P("a", "x")}, plan.query)
	assert.Nil(t, plan.form)
	assert.Equal(t, "text/plain", plan.accept)
	assert.True(t, plan.hasJSON)
	assert.Equal(t, map[string]any{"a": 1}, plan.jsonBody)
	assert.Equal(t, ShapeJSON, plan.shape)
	assert.Equal(t, "items.0", plan.selectPath)
	assert.Equal(t, fetch.Options{fetch.KeyTimeout: time.Second}, plan.local)
	assert.True(t, plan.fail)
}

// TestToGJSONPath tests JSONPath to gjson conversion.
func TestToGJSONPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users.0.name", toGJSONPath("$.users[0].name"))
	assert.Equal(t, "users.0.name", toGJSONPath("users.0.name"))
	assert.Equal(t, "users.#", toGJSONPath(" users.# "))
	assert.Empty(t, toGJSONPath(""))
}

// TestBuildChain tests chain assembly from a plan.
func TestBuildChain(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, nil)

	plan, err := newRequestPlan(http.MethodPost, RequestFlags{
		Headers: []string{"Authorization: token"},
		Query:   []string{"q=go"},
		JSON:    `{"a":1}`,
	})
	require.NoError(t, err)

	b := app.buildChain("http://x/search?old=1", plan)

	assert.Equal(t, "http://x/search?q=go", b.GetURL())

	opts := b.GetOptions()
	assert.Equal(t, map[string]any{
		"Content-Type":  "application/json",
		"Authorization": "token",
	}, opts[fetch.KeyHeaders])
	assert.JSONEq(t, `{"a":1}`, opts[fetch.KeyBody].(string))
}
