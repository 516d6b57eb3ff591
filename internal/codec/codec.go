package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Delimiter joins the path segments of a nested config key into a flat key.
// It is reserved: segment keys containing it are rejected at load time.
const Delimiter = ":"

// SerializationError reports a configuration leaf whose value cannot be
// represented as a primitive scalar or a sequence of primitives.
type SerializationError struct {
	Key   string
	Value any
}

func (e *SerializationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cannot serialize value of type %T for key %q", e.Value, e.Key)
	}
	return fmt.Sprintf("cannot serialize value of type %T", e.Value)
}

// ValidateKeys walks a config tree and rejects any mapping key that contains
// the reserved delimiter. Such keys would be indistinguishable from nested
// paths after flattening.
func ValidateKeys(tree map[string]any) error {
	for key, value := range tree {
		if strings.Contains(key, Delimiter) {
			return fmt.Errorf("config key %q contains reserved delimiter %q", key, Delimiter)
		}
		if nested, ok := value.(map[string]any); ok {
			if err := ValidateKeys(nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flatten converts a nested config tree into a flat mapping keyed by
// delimiter-joined paths. Only leaves are emitted; nested mappings contribute
// their path segment. Leaf values are serialized so every flattened value is
// a primitive scalar or a sequence of primitives.
func Flatten(tree map[string]any) (map[string]any, error) {
	flat := make(map[string]any)
	if err := flattenInto(flat, "", tree); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenInto(flat map[string]any, prefix string, tree map[string]any) error {
	for key, value := range tree {
		if strings.Contains(key, Delimiter) {
			return fmt.Errorf("config key %q contains reserved delimiter %q", key, Delimiter)
		}
		path := key
		if prefix != "" {
			path = prefix + Delimiter + key
		}
		if nested, ok := value.(map[string]any); ok {
			if err := flattenInto(flat, path, nested); err != nil {
				return err
			}
			continue
		}
		serialized, err := Serialize(value)
		if err != nil {
			if serr, ok := err.(*SerializationError); ok && serr.Key == "" {
				serr.Key = path
			}
			return err
		}
		flat[path] = serialized
	}
	return nil
}

// SortedKeys returns the keys of a flat mapping in lexical order. Flatten
// output carries no semantic order, so consumers that need a stable order
// sort.
func SortedKeys(flat map[string]any) []string {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// UnflattenKey rebuilds the minimal nested mapping for a single flat key,
// placing value at the leaf. A key without the delimiter yields a one-level
// mapping.
func UnflattenKey(key string, value any) map[string]any {
	result := make(map[string]any)
	parts := strings.Split(key, Delimiter)
	current := result
	for _, part := range parts[:len(parts)-1] {
		next := make(map[string]any)
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = value
	return result
}

// Serialize normalizes a value for flattening and comparison: path/time-like
// values become strings, sequences and mappings are serialized recursively,
// and plain scalars pass through unchanged. Unsupported types are a
// SerializationError.
func Serialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, int, int64, uint64, float64, float32:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			serialized, err := Serialize(item)
			if err != nil {
				return nil, err
			}
			out[i] = serialized
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			serialized, err := Serialize(item)
			if err != nil {
				return nil, err
			}
			out[key] = serialized
		}
		return out, nil
	default:
		return nil, &SerializationError{Value: value}
	}
}

// Format renders a serialized value as the single string Snakemake receives
// on the right-hand side of key=value. Sequences and mappings render as JSON,
// which Snakemake's YAML config parser accepts as flow syntax.
func Format(value any) (string, error) {
	serialized, err := Serialize(value)
	if err != nil {
		return "", err
	}
	switch v := serialized.(type) {
	case nil:
		return "None", nil
	case string:
		return v, nil
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return "", &SerializationError{Value: value}
		}
		return string(data), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// Coerce parses a raw command-line value into a typed one, trying integer,
// float, structured YAML literal and finally plain string. This mirrors the
// coercion Snakemake applies to its own --config entries so overrides arrive
// typed instead of stringly.
func Coerce(raw string) any {
	if raw == "" || raw == "None" {
		return nil
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err == nil && v != nil {
		return v
	}
	return raw
}
