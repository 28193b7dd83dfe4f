package schema_test

import (
	"reflect"
	"testing"

	"github.com/effective-security/agentic/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchInput struct {
	Query    string `json:"query" jsonschema:"title=query,description=The query to search."`
	Language string `json:"language,omitempty" jsonschema:"title=language,description=ISO language code.,default=en"`
	Limit    int    `json:"limit,omitempty" jsonschema:"title=limit,description=Max results."`
}

func Test_New(t *testing.T) {
	sc, err := schema.New(reflect.TypeOf(searchInput{}))
	require.NoError(t, err)
	require.NotNil(t, sc.Parameters)

	assert.Equal(t, "object", sc.Parameters.Type)
	assert.Equal(t, []string{"query"}, sc.Parameters.Required)
	assert.Equal(t, 3, sc.Parameters.Properties.Len())

	// the cache returns the same instance
	sc2, err := schema.New(reflect.TypeOf(searchInput{}))
	require.NoError(t, err)
	assert.Same(t, sc, sc2)

	exp := `{
	"properties": {
		"query": {
			"type": "string",
			"title": "query",
			"description": "The query to search."
		},
		"language": {
			"type": "string",
			"title": "language",
			"description": "ISO language code.",
			"default": "en"
		},
		"limit": {
			"type": "integer",
			"title": "limit",
			"description": "Max results."
		}
	},
	"type": "object",
	"required": [
		"query"
	]
}`
	assert.Equal(t, exp, sc.String())
}

func Test_MustNew(t *testing.T) {
	assert.NotPanics(t, func() {
		sc := schema.MustNew(searchInput{})
		assert.NotNil(t, sc)
	})
}

func Test_ValidateArgs(t *testing.T) {
	sc := schema.MustNew(searchInput{})

	t.Run("missing required", func(t *testing.T) {
		_, err := sc.ValidateArgs(map[string]any{"language": "en"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing required parameter: "query"`)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := sc.ValidateArgs(map[string]any{"query": 42})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid type for parameter "query"`)
	})

	t.Run("non integral limit", func(t *testing.T) {
		_, err := sc.ValidateArgs(map[string]any{"query": "news", "limit": 1.5})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid type for parameter "limit"`)
	})

	t.Run("extras ignored, defaults applied", func(t *testing.T) {
		args, err := sc.ValidateArgs(map[string]any{
			"query":      "news",
			"unexpected": true,
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"query":    "news",
			"language": "en",
		}, args)
	})

	t.Run("integral float accepted for integer", func(t *testing.T) {
		args, err := sc.ValidateArgs(map[string]any{"query": "news", "limit": float64(3)})
		require.NoError(t, err)
		assert.Equal(t, float64(3), args["limit"])
	})
}

func Test_FromAny(t *testing.T) {
	js, err := schema.FromAny(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{"type": "string"},
		},
		"required": []string{"expression"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", js.Type)
	assert.Equal(t, []string{"expression"}, js.Required)

	assert.NotPanics(t, func() {
		schema.MustFromAny(map[string]any{"type": "object"})
	})
}
