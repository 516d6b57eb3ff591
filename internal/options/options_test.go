package options

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"snk/internal/loader"
)

func TestBuildFromConfigOnly(t *testing.T) {
	config := map[string]any{
		"a": map[string]any{"b": 1},
	}

	descriptors, err := Build(config, &loader.SnkConfig{})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descriptors))
	}

	d := descriptors[0]
	if d.Name != "a_b" {
		t.Errorf("name = %q, want a_b", d.Name)
	}
	if d.OriginalKey != "a:b" {
		t.Errorf("original key = %q, want a:b", d.OriginalKey)
	}
	if d.Default != 1 {
		t.Errorf("default = %v, want 1", d.Default)
	}
	if d.Type != "int" {
		t.Errorf("type = %q, want int", d.Type)
	}
	if d.Required {
		t.Error("required should default to false")
	}
	if d.Help != "" {
		t.Errorf("help = %q, want empty", d.Help)
	}
}

func TestBuildMergesAnnotations(t *testing.T) {
	config := map[string]any{
		"samples": map[string]any{"count": 3},
	}
	snk := &loader.SnkConfig{
		Annotations: map[string]any{
			"samples": map[string]any{
				"count": map[string]any{
					"name":     "sample-count",
					"help":     "Number of samples.",
					"type":     "int",
					"required": true,
				},
			},
		},
	}

	descriptors, err := Build(config, snk)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	d := descriptors[0]
	if d.Name != "sample_count" {
		t.Errorf("name = %q, want sample_count (hyphens replaced)", d.Name)
	}
	if d.Help != "Number of samples." {
		t.Errorf("help = %q", d.Help)
	}
	if !d.Required {
		t.Error("required annotation not applied")
	}
}

func TestBuildTypeDefaults(t *testing.T) {
	config := map[string]any{
		"flag":  true,
		"ratio": 0.5,
		"name":  "x",
		"items": []any{"a", "b"},
	}

	descriptors, err := Build(config, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	types := map[string]string{}
	for _, d := range descriptors {
		types[d.Name] = d.Type
	}
	want := map[string]string{"flag": "bool", "ratio": "float", "name": "str", "items": "list"}
	for name, typ := range want {
		if types[name] != typ {
			t.Errorf("type of %s = %q, want %q", name, types[name], typ)
		}
	}
}

func TestBuildDuplicateNames(t *testing.T) {
	// a:b and a_b both sanitize to flag name a_b.
	config := map[string]any{
		"a":   map[string]any{"b": 1},
		"a_b": 2,
	}

	_, err := Build(config, nil)
	var derr *DuplicateOptionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DuplicateOptionError, got %v", err)
	}
	if derr.Name != "a_b" {
		t.Errorf("colliding name = %q, want a_b", derr.Name)
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	config := map[string]any{"b": 1, "a": 2, "c": 3}
	descriptors, err := Build(config, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	var names []string
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestAddToFlagSet(t *testing.T) {
	descriptors := []Descriptor{
		{Name: "count", Default: 3, Type: "int"},
		{Name: "ratio", Default: 0.5, Type: "float"},
		{Name: "fast", Default: false, Type: "bool"},
		{Name: "label", Default: "x", Type: "str"},
		{Name: "items", Default: []any{"a"}, Type: "list"},
	}

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	for _, d := range descriptors {
		d.AddToFlagSet(fs)
	}

	if err := fs.Parse([]string{"--count", "5", "--fast"}); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	count, _ := fs.GetInt("count")
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	fast, _ := fs.GetBool("fast")
	if !fast {
		t.Error("fast flag not set")
	}
	ratio, _ := fs.GetFloat64("ratio")
	if ratio != 0.5 {
		t.Errorf("ratio default = %v, want 0.5", ratio)
	}
	label, _ := fs.GetString("label")
	if label != "x" {
		t.Errorf("label default = %q, want x", label)
	}
}

func TestRequiredMarkedInHelp(t *testing.T) {
	d := Descriptor{Name: "count", Default: 1, Type: "int", Required: true, Help: "Samples."}
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	d.AddToFlagSet(fs)

	flag := fs.Lookup("count")
	if flag == nil {
		t.Fatal("flag not registered")
	}
	if flag.Usage != "Samples. [required]" {
		t.Errorf("usage = %q", flag.Usage)
	}
}
