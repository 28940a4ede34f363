package listing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field extraction helpers. Extraction never panics on missing nested
// structure; each accessor reports whether the field was absent,
// present, or present but malformed so callers can distinguish the two
// failure modes.

type FieldState int

const (
	FieldAbsent FieldState = iota
	FieldPresent
	FieldMalformed
)

// stringAt walks nested maps along path and returns the string value at
// the end of it.
func stringAt(content map[string]any, path ...string) (string, FieldState) {
	value, state := valueAt(content, path...)
	if state != FieldPresent {
		return "", state
	}
	s, ok := value.(string)
	if !ok {
		return "", FieldMalformed
	}
	return strings.TrimSpace(s), FieldPresent
}

// listAt returns a list of strings at path. A bare string is treated as
// a one-element list; that cardinality distinction is reported back via
// the single return.
func listAt(content map[string]any, path ...string) (values []string, single bool, state FieldState) {
	value, state := valueAt(content, path...)
	if state != FieldPresent {
		return nil, false, state
	}

	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, false, FieldAbsent
		}
		return []string{trimmed}, true, FieldPresent
	case []any:
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return nil, false, FieldMalformed
			}
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if len(values) == 0 {
			return nil, false, FieldAbsent
		}
		return values, false, FieldPresent
	default:
		return nil, false, FieldMalformed
	}
}

// floatAt returns a numeric value at path. CMS exports store
// coordinates both as numbers and as decimal strings, so both are
// accepted.
func floatAt(content map[string]any, path ...string) (float64, FieldState) {
	value, state := valueAt(content, path...)
	if state != FieldPresent {
		return 0, state
	}

	switch v := value.(type) {
	case float64:
		return v, FieldPresent
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, FieldMalformed
		}
		return f, FieldPresent
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, FieldAbsent
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, FieldMalformed
		}
		return f, FieldPresent
	default:
		return 0, FieldMalformed
	}
}

// valueAt walks nested maps along path.
func valueAt(content map[string]any, path ...string) (any, FieldState) {
	if content == nil || len(path) == 0 {
		return nil, FieldAbsent
	}

	var current any = content
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, FieldMalformed
		}
		current, ok = m[key]
		if !ok || current == nil {
			return nil, FieldAbsent
		}
	}

	return current, FieldPresent
}

// marshalTaxonomyJSON mirrors TaxonomyValue.MarshalYAML for JSON output.
func marshalTaxonomyJSON(v TaxonomyValue) ([]byte, error) {
	if v.Single && len(v.Values) == 1 {
		return json.Marshal(v.Values[0])
	}
	if v.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Values)
}
