package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger, opts...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func variants(names ...string) []engine.VariantPlan {
	out := make([]engine.VariantPlan, 0, len(names))
	for i, n := range names {
		out = append(out, engine.VariantPlan{
			Name:     n,
			FullName: n,
			Key:      n + "-" + string(rune('a'+i)),
		})
	}
	return out
}

func TestNewEngine(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	expected := []string{
		"variants.default-dimensions",
		"variants.limit",
		"variants.non-empty",
		"variants.unique-names",
	}

	if len(policies) != len(expected) {
		t.Fatalf("Expected %d built-in policies, got %d", len(expected), len(policies))
	}
	for i, name := range expected {
		if policies[i].Name != name {
			t.Errorf("Policy %d: expected %s, got %s", i, name, policies[i].Name)
		}
		if !policies[i].Builtin {
			t.Errorf("Policy %s should be marked built-in", name)
		}
	}
}

func TestEvaluateComponent(t *testing.T) {
	tests := []struct {
		name          string
		component     engine.ComponentPlan
		wantAllowed   bool
		wantPolicies  []string
		wantWarnings  int
		wantInMessage string
	}{
		{
			name: "within limit",
			component: engine.ComponentPlan{
				Name:      "lib",
				Axes:      []string{"os"},
				Basis:     []string{"os"},
				SpaceSize: 2,
				Variants:  variants("linux", "windows"),
			},
			wantAllowed: true,
		},
		{
			name: "over limit",
			component: engine.ComponentPlan{
				Name:      "lib",
				Axes:      []string{"os"},
				Basis:     []string{"os"},
				SpaceSize: 3,
				Variants:  variants("linux", "macos", "windows"),
			},
			wantAllowed:   false,
			wantPolicies:  []string{"variants.limit"},
			wantInMessage: "more than the limit of 2",
		},
		{
			name: "duplicate names",
			component: engine.ComponentPlan{
				Name:      "lib",
				Axes:      []string{"os", "arch"},
				Basis:     []string{"os"},
				SpaceSize: 2,
				Variants:  variants("linux", "linux"),
			},
			wantAllowed:   false,
			wantPolicies:  []string{"variants.unique-names"},
			wantInMessage: "share the name 'linux'",
		},
		{
			name: "no varying dimension",
			component: engine.ComponentPlan{
				Name:      "lib",
				Axes:      []string{"os"},
				SpaceSize: 1,
				Variants:  variants(""),
			},
			wantAllowed:   true,
			wantPolicies:  []string{"variants.default-dimensions"},
			wantWarnings:  1,
			wantInMessage: "none of them varies",
		},
		{
			name: "everything excluded",
			component: engine.ComponentPlan{
				Name:      "lib",
				Axes:      []string{"os"},
				Basis:     []string{"os"},
				SpaceSize: 2,
				Excluded:  variants("linux", "windows"),
			},
			wantAllowed:   false,
			wantPolicies:  []string{"variants.non-empty"},
			wantInMessage: "exclude all 2 variants",
		},
		{
			name:        "empty component",
			component:   engine.ComponentPlan{Name: "empty", SpaceSize: 1, Variants: variants("")},
			wantAllowed: true,
		},
	}

	eng := newTestEngine(t, WithMaxVariants(2))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.EvaluateComponent(context.Background(), &tt.component)
			if err != nil {
				t.Fatalf("EvaluateComponent failed: %v", err)
			}

			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (violations: %+v)", result.Allowed, tt.wantAllowed, result.Violations)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("Expected %d warnings, got %d", tt.wantWarnings, len(result.Warnings))
			}
			if len(result.Violations) != len(tt.wantPolicies) {
				t.Fatalf("Expected %d violations, got %+v", len(tt.wantPolicies), result.Violations)
			}
			for i, name := range tt.wantPolicies {
				v := result.Violations[i]
				if v.Policy != name {
					t.Errorf("Violation %d: expected policy %s, got %s", i, name, v.Policy)
				}
				if v.Component != tt.component.Name {
					t.Errorf("Violation %d: expected component %s, got %s", i, tt.component.Name, v.Component)
				}
				if !strings.Contains(v.Message, tt.wantInMessage) {
					t.Errorf("Violation %d: message %q does not contain %q", i, v.Message, tt.wantInMessage)
				}
			}
			if result.EvaluatedAt.IsZero() {
				t.Error("EvaluatedAt not set")
			}
		})
	}
}

func TestEvaluateComponent_DisabledPolicy(t *testing.T) {
	eng := newTestEngine(t, WithMaxVariants(1))

	if err := eng.DisablePolicy("variants.limit"); err != nil {
		t.Fatalf("DisablePolicy failed: %v", err)
	}

	cp := &engine.ComponentPlan{
		Name:      "lib",
		Axes:      []string{"os"},
		Basis:     []string{"os"},
		SpaceSize: 2,
		Variants:  variants("linux", "windows"),
	}

	result, err := eng.EvaluateComponent(context.Background(), cp)
	if err != nil {
		t.Fatalf("EvaluateComponent failed: %v", err)
	}
	if !result.Allowed || len(result.Violations) != 0 {
		t.Errorf("Expected no violations with the limit disabled, got %+v", result.Violations)
	}

	if err := eng.EnablePolicy("variants.limit"); err != nil {
		t.Fatalf("EnablePolicy failed: %v", err)
	}
	result, err = eng.EvaluateComponent(context.Background(), cp)
	if err != nil {
		t.Fatalf("EvaluateComponent failed: %v", err)
	}
	if result.Allowed {
		t.Error("Expected the re-enabled limit to reject the component")
	}

	if err := eng.DisablePolicy("missing"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestEvaluateComponent_ZeroLimitDisablesCheck(t *testing.T) {
	eng := newTestEngine(t, WithMaxVariants(0))

	cp := &engine.ComponentPlan{
		Name:      "lib",
		Axes:      []string{"os"},
		Basis:     []string{"os"},
		SpaceSize: 3,
		Variants:  variants("a", "b", "c"),
	}

	result, err := eng.EvaluateComponent(context.Background(), cp)
	if err != nil {
		t.Fatalf("EvaluateComponent failed: %v", err)
	}
	if !result.Allowed {
		t.Errorf("Expected allowed, got %+v", result.Violations)
	}
}

func TestEvaluateComponent_WorkspaceLimit(t *testing.T) {
	eng := newTestEngine(t)

	cp := &engine.ComponentPlan{
		Name:      "lib",
		Axes:      []string{"os"},
		Basis:     []string{"os"},
		SpaceSize: 3,
		Variants:  variants("a", "b", "c"),
	}

	ctx := engine.WithMaxVariants(context.Background(), 2)
	result, err := eng.EvaluateComponent(ctx, cp)
	if err != nil {
		t.Fatalf("EvaluateComponent failed: %v", err)
	}
	if result.Allowed {
		t.Fatal("Expected workspace limit to deny the component")
	}
	if !strings.Contains(result.Violations[0].Message, "more than the limit of 2") {
		t.Errorf("Unexpected violation: %s", result.Violations[0].Message)
	}
}

func TestEvaluateComponent_Errors(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.EvaluateComponent(context.Background(), nil); err == nil {
		t.Error("Expected error for nil component")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.EvaluateComponent(ctx, &engine.ComponentPlan{Name: "lib"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestLoadPolicies_Custom(t *testing.T) {
	dir := t.TempDir()
	rego := `# Forbids the legacy toolchain
# severity: critical
package custom.toolchain

import rego.v1

deny contains msg if {
	some v in input.component.variants
	contains(v.name, "legacy")
	msg := sprintf("variant %s uses the legacy toolchain", [v.name])
}
`
	if err := os.WriteFile(filepath.Join(dir, "no-legacy.rego"), []byte(rego), 0o644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}

	eng := newTestEngine(t)
	if err := eng.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies failed: %v", err)
	}

	p, err := eng.GetPolicy("no-legacy")
	if err != nil {
		t.Fatalf("GetPolicy failed: %v", err)
	}
	if p.Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", p.Severity)
	}
	if p.Description != "Forbids the legacy toolchain" {
		t.Errorf("Unexpected description %q", p.Description)
	}

	result, err := eng.EvaluateComponent(context.Background(), &engine.ComponentPlan{
		Name:      "lib",
		Axes:      []string{"toolchain"},
		Basis:     []string{"toolchain"},
		SpaceSize: 2,
		Variants:  variants("legacy", "modern"),
	})
	if err != nil {
		t.Fatalf("EvaluateComponent failed: %v", err)
	}
	if result.Allowed {
		t.Fatal("Expected critical violation to reject the component")
	}
	if len(result.Violations) != 1 || result.Violations[0].Message != "variant legacy uses the legacy toolchain" {
		t.Errorf("Unexpected violations: %+v", result.Violations)
	}
	if result.Violations[0].Severity != "critical" {
		t.Errorf("Expected critical severity, got %s", result.Violations[0].Severity)
	}
}

func TestReplacePolicies_KeepsBuiltins(t *testing.T) {
	eng := newTestEngine(t)

	custom := []Policy{{
		Name:     "always",
		Rego:     "package custom.always\n\nimport rego.v1\n\ndeny contains \"always\" if { true }\n",
		Severity: SeverityInfo,
		Enabled:  true,
	}}
	if err := eng.ReplacePolicies(context.Background(), custom); err != nil {
		t.Fatalf("ReplacePolicies failed: %v", err)
	}
	if len(eng.ListPolicies()) != 5 {
		t.Fatalf("Expected 5 policies, got %d", len(eng.ListPolicies()))
	}

	if err := eng.ReplacePolicies(context.Background(), nil); err != nil {
		t.Fatalf("ReplacePolicies failed: %v", err)
	}
	if _, err := eng.GetPolicy("always"); err == nil {
		t.Error("Expected custom policy to be dropped")
	}

	bad := []Policy{{Name: "broken", Rego: "package broken\n\ndeny contains if {"}}
	if err := eng.ReplacePolicies(context.Background(), bad); err == nil {
		t.Error("Expected compile error")
	}
	if len(eng.ListPolicies()) != 4 {
		t.Errorf("Failed replace should keep the previous set, got %d", len(eng.ListPolicies()))
	}
}

func TestReloadPolicies(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.ReplacePolicies(context.Background(), []Policy{{
		Name: "extra",
		Rego: "package extra\n\nimport rego.v1\n\ndeny contains \"x\" if { false }\n",
	}}); err != nil {
		t.Fatalf("ReplacePolicies failed: %v", err)
	}

	if err := eng.ReloadPolicies(context.Background()); err != nil {
		t.Fatalf("ReloadPolicies failed: %v", err)
	}
	if len(eng.ListPolicies()) != 4 {
		t.Errorf("Expected only built-ins after reload, got %d", len(eng.ListPolicies()))
	}
}
