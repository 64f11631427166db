package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EnvVarSpec is a parsed config value that may reference an environment
// variable.
type EnvVarSpec struct {
	// VarName is the environment variable name (e.g. "SIMDECK_ADDR").
	VarName string

	// HasDefault indicates a fallback value was provided.
	HasDefault bool

	// DefaultValue is the fallback if HasDefault is true.
	DefaultValue string

	// IsLiteral indicates the value is plain text, not an env var.
	IsLiteral bool

	// LiteralValue is the text if IsLiteral is true.
	LiteralValue string
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}`)

// anchoredEnvVarPattern matches a value that is exactly one env var token.
var anchoredEnvVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// ParseEnvVar parses a config value that may use environment variable syntax.
//
// Supported formats:
//   - ${VAR}         - required environment variable
//   - ${VAR:default} - environment variable with a fallback
//   - literal        - plain value, used as-is
func ParseEnvVar(value string) *EnvVarSpec {
	matches := anchoredEnvVarPattern.FindStringSubmatch(value)
	if matches == nil {
		return &EnvVarSpec{IsLiteral: true, LiteralValue: value}
	}

	spec := &EnvVarSpec{
		VarName:    matches[1],
		HasDefault: matches[2] != "",
	}
	if spec.HasDefault {
		spec.DefaultValue = strings.TrimPrefix(matches[2], ":")
	}
	return spec
}

// Resolve produces the concrete value: the literal, the environment
// variable's value, or the default. A required variable that is unset is an
// error.
func (s *EnvVarSpec) Resolve() (string, error) {
	if s.IsLiteral {
		return s.LiteralValue, nil
	}
	if v, ok := os.LookupEnv(s.VarName); ok {
		return v, nil
	}
	if s.HasDefault {
		return s.DefaultValue, nil
	}
	return "", fmt.Errorf("required environment variable %s is not set", s.VarName)
}

// Substitute replaces every ${VAR} and ${VAR:default} occurrence in the raw
// config text with its resolved value. Substitution runs before YAML
// parsing, so references work anywhere in the file.
func Substitute(data []byte) ([]byte, error) {
	var firstErr error
	out := envVarPattern.ReplaceAllFunc(data, func(token []byte) []byte {
		resolved, err := ParseEnvVar(string(token)).Resolve()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return []byte(resolved)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
