package args

import (
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"snk/internal/options"
)

var nested = []options.Descriptor{
	{Name: "a_b", OriginalKey: "a:b", Default: 1, Type: "int"},
}

func TestReconcileUnchangedValueSuppressed(t *testing.T) {
	passthrough, overrides, seen, err := Reconcile([]string{"--a_b", "1", "target"}, nested)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !reflect.DeepEqual(passthrough, []string{"target"}) {
		t.Errorf("passthrough = %v, want [target]", passthrough)
	}
	if len(overrides) != 0 {
		t.Errorf("overrides = %v, want none for unchanged value", overrides)
	}
	if !seen["a_b"] {
		t.Error("descriptor should be marked as seen even when suppressed")
	}
}

func TestReconcileChangedValueNested(t *testing.T) {
	passthrough, overrides, _, err := Reconcile([]string{"--a_b", "2", "target"}, nested)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !reflect.DeepEqual(passthrough, []string{"target"}) {
		t.Errorf("passthrough = %v, want [target]", passthrough)
	}
	if len(overrides) != 1 {
		t.Fatalf("overrides = %v, want one entry", overrides)
	}
	want := Override{Key: "a", Value: map[string]any{"b": 2}}
	if !reflect.DeepEqual(overrides[0], want) {
		t.Errorf("override = %#v, want %#v", overrides[0], want)
	}
}

func TestReconcileFlatKey(t *testing.T) {
	descriptors := []options.Descriptor{
		{Name: "threads", OriginalKey: "threads", Default: 4, Type: "int"},
	}
	_, overrides, _, err := Reconcile([]string{"--threads", "8"}, descriptors)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := Override{Key: "threads", Value: 8}
	if len(overrides) != 1 || !reflect.DeepEqual(overrides[0], want) {
		t.Errorf("overrides = %#v, want [%#v]", overrides, want)
	}
}

func TestReconcileUnknownFlagPassthrough(t *testing.T) {
	tokens := []string{"--dry-run", "--until", "rule_a", "target"}
	passthrough, overrides, _, err := Reconcile(tokens, nested)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !reflect.DeepEqual(passthrough, tokens) {
		t.Errorf("passthrough = %v, want all tokens in order", passthrough)
	}
	if len(overrides) != 0 {
		t.Errorf("overrides = %v, want none", overrides)
	}
}

func TestReconcileValueAfterUnknownFlagNotConsumed(t *testing.T) {
	// "2" follows an unknown flag, so it must not become a_b's value.
	tokens := []string{"--unknown", "2", "--a_b", "3"}
	passthrough, overrides, _, err := Reconcile(tokens, nested)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !reflect.DeepEqual(passthrough, []string{"--unknown", "2"}) {
		t.Errorf("passthrough = %v", passthrough)
	}
	if len(overrides) != 1 || overrides[0].Key != "a" {
		t.Errorf("overrides = %#v", overrides)
	}
}

func TestReconcileInlineValue(t *testing.T) {
	_, overrides, _, err := Reconcile([]string{"--a_b=5"}, nested)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := Override{Key: "a", Value: map[string]any{"b": 5}}
	if len(overrides) != 1 || !reflect.DeepEqual(overrides[0], want) {
		t.Errorf("overrides = %#v, want [%#v]", overrides, want)
	}
}

func TestReconcileCoercesValues(t *testing.T) {
	descriptors := []options.Descriptor{
		{Name: "ratio", OriginalKey: "ratio", Default: 0.5, Type: "float"},
		{Name: "label", OriginalKey: "label", Default: "x", Type: "str"},
	}
	_, overrides, _, err := Reconcile([]string{"--ratio", "0.9", "--label", "sample"}, descriptors)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(overrides) != 2 {
		t.Fatalf("overrides = %#v, want two", overrides)
	}
	if overrides[0].Value != 0.9 {
		t.Errorf("ratio override = %#v (%T), want float64 0.9", overrides[0].Value, overrides[0].Value)
	}
	if overrides[1].Value != "sample" {
		t.Errorf("label override = %#v, want sample", overrides[1].Value)
	}
}

func TestSplit(t *testing.T) {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.BoolP("force", "f", false, "")
	fs.IntP("cores", "c", 0, "")
	fs.Bool("fast", false, "")   // boolean descriptor, bound by the set
	fs.String("a_b", "1", "")    // value descriptor, resolved manually
	manual := map[string]bool{"a_b": true}

	tokens := []string{"-f", "--cores", "4", "--fast", "--a_b", "2", "--dry-run", "target"}
	bound, residual := Split(tokens, fs, manual)

	wantBound := []string{"-f", "--cores", "4", "--fast"}
	if !reflect.DeepEqual(bound, wantBound) {
		t.Errorf("bound = %v, want %v", bound, wantBound)
	}
	wantResidual := []string{"--a_b", "2", "--dry-run", "target"}
	if !reflect.DeepEqual(residual, wantResidual) {
		t.Errorf("residual = %v, want %v", residual, wantResidual)
	}
}

func TestSplitInlineValue(t *testing.T) {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.Int("cores", 0, "")

	bound, residual := Split([]string{"--cores=4", "target"}, fs, nil)
	if !reflect.DeepEqual(bound, []string{"--cores=4"}) {
		t.Errorf("bound = %v", bound)
	}
	if !reflect.DeepEqual(residual, []string{"target"}) {
		t.Errorf("residual = %v", residual)
	}
}

func TestMakeOverride(t *testing.T) {
	d := options.Descriptor{Name: "a_b_c", OriginalKey: "a:b:c"}
	got := MakeOverride(d, true)
	want := Override{Key: "a", Value: map[string]any{"b": map[string]any{"c": true}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MakeOverride = %#v, want %#v", got, want)
	}
}
