package schema

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ValidateArgs checks raw tool-call arguments against the Parameters schema.
// Missing required parameters and type mismatches fail with an error naming
// the offending field. Unknown extra parameters are dropped, and declared
// defaults are applied for absent optional parameters. The returned map is a
// new map; the input is not modified.
func (s *Schema) ValidateArgs(args map[string]any) (map[string]any, error) {
	params := s.Parameters
	if params == nil || params.Properties == nil {
		return map[string]any{}, nil
	}

	for _, name := range params.Required {
		if _, ok := args[name]; !ok {
			return nil, errors.Newf("missing required parameter: %q", name)
		}
	}

	res := make(map[string]any, params.Properties.Len())
	for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name, prop := pair.Key, pair.Value
		val, ok := args[name]
		if !ok {
			if prop.Default != nil {
				res[name] = prop.Default
			}
			continue
		}
		if prop.Type != "" && !typeMatches(prop.Type, val) {
			return nil, errors.Newf("invalid type for parameter %q: expected %s", name, prop.Type)
		}
		res[name] = val
	}

	return res, nil
}

// typeMatches reports whether a JSON-decoded value conforms to the declared
// JSON Schema type. Values come from encoding/json: string, float64, bool,
// map[string]any, []any, nil.
func typeMatches(schemaType string, v any) bool {
	switch schemaType {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "integer":
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "null":
		return v == nil
	}
	// unknown declared type, be lenient
	return true
}
