package config

import (
	"testing"
)

func TestParseEnvVar_RequiredVariable(t *testing.T) {
	spec := ParseEnvVar("${SIMDECK_ADDR}")

	if spec.IsLiteral {
		t.Error("Expected IsLiteral=false for env var")
	}
	if spec.VarName != "SIMDECK_ADDR" {
		t.Errorf("Expected VarName='SIMDECK_ADDR', got '%s'", spec.VarName)
	}
	if spec.HasDefault {
		t.Error("Expected HasDefault=false for required variable")
	}
}

func TestParseEnvVar_WithDefault(t *testing.T) {
	spec := ParseEnvVar("${SIMDECK_ADDR:localhost:8420}")

	if spec.VarName != "SIMDECK_ADDR" {
		t.Errorf("Expected VarName='SIMDECK_ADDR', got '%s'", spec.VarName)
	}
	if !spec.HasDefault {
		t.Error("Expected HasDefault=true")
	}
	if spec.DefaultValue != "localhost:8420" {
		t.Errorf("Expected DefaultValue='localhost:8420', got '%s'", spec.DefaultValue)
	}
}

func TestParseEnvVar_LiteralValue(t *testing.T) {
	spec := ParseEnvVar("localhost:8420")

	if !spec.IsLiteral {
		t.Error("Expected IsLiteral=true for plain string")
	}
	if spec.LiteralValue != "localhost:8420" {
		t.Errorf("Expected LiteralValue='localhost:8420', got '%s'", spec.LiteralValue)
	}
}

func TestParseEnvVar_DefaultWithSpecialChars(t *testing.T) {
	tests := []struct {
		input           string
		expectedVar     string
		expectedDefault string
	}{
		{"${SIMDECK_DSN:postgres://localhost:5432/simdeck}", "SIMDECK_DSN", "postgres://localhost:5432/simdeck"},
		{"${OTLP_ENDPOINT:127.0.0.1:4317}", "OTLP_ENDPOINT", "127.0.0.1:4317"},
		{"${SCENARIO_DIR:/etc/simdeck/scenarios}", "SCENARIO_DIR", "/etc/simdeck/scenarios"},
		{"${API_KEY:}", "API_KEY", ""},
	}

	for _, test := range tests {
		spec := ParseEnvVar(test.input)
		if spec.VarName != test.expectedVar {
			t.Errorf("ParseEnvVar(%q): expected VarName=%q, got %q",
				test.input, test.expectedVar, spec.VarName)
		}
		if spec.DefaultValue != test.expectedDefault {
			t.Errorf("ParseEnvVar(%q): expected DefaultValue=%q, got %q",
				test.input, test.expectedDefault, spec.DefaultValue)
		}
	}
}

func TestParseEnvVar_InvalidSyntaxIsLiteral(t *testing.T) {
	tests := []string{
		"${lowercase}",
		"${123VAR}",
		"${VAR-NAME}",
		"$VAR",
		"${VAR",
		"${}",
		"",
	}

	for _, test := range tests {
		spec := ParseEnvVar(test)
		if !spec.IsLiteral {
			t.Errorf("ParseEnvVar(%q) should treat as literal, got IsLiteral=false", test)
		}
		if spec.LiteralValue != test {
			t.Errorf("ParseEnvVar(%q) should preserve value as literal, got %q",
				test, spec.LiteralValue)
		}
	}
}

func TestResolve_SetVariable(t *testing.T) {
	t.Setenv("SIMDECK_TEST_ADDR", "example.com:9000")

	got, err := ParseEnvVar("${SIMDECK_TEST_ADDR:fallback:1}").Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "example.com:9000" {
		t.Errorf("Expected environment value, got %q", got)
	}
}

func TestResolve_UnsetUsesDefault(t *testing.T) {
	got, err := ParseEnvVar("${SIMDECK_UNSET_VAR:localhost:8420}").Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "localhost:8420" {
		t.Errorf("Expected default value, got %q", got)
	}
}

func TestResolve_UnsetRequiredErrors(t *testing.T) {
	_, err := ParseEnvVar("${SIMDECK_UNSET_VAR}").Resolve()
	if err == nil {
		t.Error("Expected error for unset required variable")
	}
}

func TestSubstitute_MixedDocument(t *testing.T) {
	t.Setenv("SIMDECK_TEST_DRIVER", "postgres")

	in := []byte("driver: ${SIMDECK_TEST_DRIVER}\naddr: ${SIMDECK_UNSET:localhost:8420}\nliteral: unchanged\n")
	out, err := Substitute(in)
	if err != nil {
		t.Fatalf("Substitute failed: %v", err)
	}

	want := "driver: postgres\naddr: localhost:8420\nliteral: unchanged\n"
	if string(out) != want {
		t.Errorf("Substitute produced %q, want %q", out, want)
	}
}

func TestSubstitute_MissingRequiredErrors(t *testing.T) {
	_, err := Substitute([]byte("dsn: ${SIMDECK_DEFINITELY_UNSET}\n"))
	if err == nil {
		t.Error("Expected error for unset required variable in document")
	}
}
