package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"snk/internal/codec"
	"snk/internal/loader"
)

// Descriptor is the merged record behind one synthesized command-line flag:
// pipeline config default plus sidecar annotation metadata.
type Descriptor struct {
	Name        string
	OriginalKey string
	Default     any
	Help        string
	Type        string
	Required    bool
}

// DuplicateOptionError reports two config keys that collapse to the same flag
// identifier after sanitization.
type DuplicateOptionError struct {
	Name string
	Keys []string
}

func (e *DuplicateOptionError) Error() string {
	return fmt.Sprintf("options %s collapse to the same flag name %q", strings.Join(e.Keys, " and "), e.Name)
}

// Build synthesizes one Descriptor per pipeline config leaf, merging sidecar
// annotations for name, help, type and requiredness. Descriptor names must be
// pairwise distinct; output order is lexical by original key.
func Build(configTree map[string]any, snkConfig *loader.SnkConfig) ([]Descriptor, error) {
	flatConfig, err := codec.Flatten(configTree)
	if err != nil {
		return nil, err
	}

	annotations := map[string]any{}
	if snkConfig != nil && snkConfig.Annotations != nil {
		annotations, err = codec.Flatten(snkConfig.Annotations)
		if err != nil {
			return nil, err
		}
	}

	descriptors := make([]Descriptor, 0, len(flatConfig))
	byName := make(map[string]string, len(flatConfig))
	for _, key := range codec.SortedKeys(flatConfig) {
		defaultValue := flatConfig[key]

		name := annotationString(annotations, key, "name")
		if name == "" {
			name = strings.ReplaceAll(key, codec.Delimiter, "_")
		}
		// Flag identifiers carry no hyphens.
		name = strings.ReplaceAll(name, "-", "_")

		if previous, taken := byName[name]; taken {
			return nil, &DuplicateOptionError{Name: name, Keys: []string{previous, key}}
		}
		byName[name] = key

		paramType := annotationString(annotations, key, "type")
		if paramType == "" {
			paramType = typeName(defaultValue)
		}

		descriptors = append(descriptors, Descriptor{
			Name:        name,
			OriginalKey: key,
			Default:     defaultValue,
			Help:        annotationString(annotations, key, "help"),
			Type:        paramType,
			Required:    annotationBool(annotations, key, "required"),
		})
	}
	return descriptors, nil
}

func annotationString(annotations map[string]any, key, field string) string {
	if v, ok := annotations[key+codec.Delimiter+field].(string); ok {
		return v
	}
	return ""
}

func annotationBool(annotations map[string]any, key, field string) bool {
	if v, ok := annotations[key+codec.Delimiter+field].(bool); ok {
		return v
	}
	return false
}

// typeName maps a default value to its descriptor type tag.
func typeName(value any) string {
	switch value.(type) {
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float32, float64:
		return "float"
	case []any:
		return "list"
	default:
		return "str"
	}
}

// Bool reports whether the descriptor's flag takes no value. Boolean flags
// are bound by the flag set directly; all other descriptor flags are matched
// token-by-token so nested keys resolve through the reconciler.
func (d Descriptor) Bool() bool { return d.Type == "bool" }

// AddToFlagSet registers the descriptor as a typed flag. Defaults come from
// the pipeline config; unknown type tags fall back to string.
func (d Descriptor) AddToFlagSet(fs *pflag.FlagSet) {
	help := d.Help
	if d.Required {
		help = strings.TrimSpace(help + " [required]")
	}
	switch d.Type {
	case "bool":
		v, _ := d.Default.(bool)
		fs.Bool(d.Name, v, help)
	case "int":
		v, ok := asInt(d.Default)
		if !ok {
			fs.String(d.Name, defaultString(d.Default), help)
			return
		}
		fs.Int(d.Name, v, help)
	case "float":
		v, ok := asFloat(d.Default)
		if !ok {
			fs.String(d.Name, defaultString(d.Default), help)
			return
		}
		fs.Float64(d.Name, v, help)
	case "list":
		fs.StringSlice(d.Name, asStringSlice(d.Default), help)
	default:
		fs.String(d.Name, defaultString(d.Default), help)
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := codec.Format(item)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func defaultString(value any) string {
	if value == nil {
		return ""
	}
	s, err := codec.Format(value)
	if err != nil {
		return ""
	}
	return s
}
