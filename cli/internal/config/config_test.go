package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simdeck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != "localhost:8420" {
		t.Errorf("Expected default addr 'localhost:8420', got %q", cfg.Server.Addr)
	}
	if cfg.Store.Driver != "badger" {
		t.Errorf("Expected default driver 'badger', got %q", cfg.Store.Driver)
	}
	if cfg.Store.Path != "simdeck-data" {
		t.Errorf("Expected default store path 'simdeck-data', got %q", cfg.Store.Path)
	}
	if cfg.Telemetry.ServiceName != "simdeck" {
		t.Errorf("Expected default service name 'simdeck', got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Scenarios.Dir != "scenarios" {
		t.Errorf("Expected default scenario dir 'scenarios', got %q", cfg.Scenarios.Dir)
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9000"
store:
  driver: postgres
  dsn: postgres://simdeck@localhost:5432/simdeck
telemetry:
  endpoint: localhost:4317
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Expected addr ':9000', got %q", cfg.Server.Addr)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("Expected driver 'postgres', got %q", cfg.Store.Driver)
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected endpoint 'localhost:4317', got %q", cfg.Telemetry.Endpoint)
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("SIMDECK_TEST_DSN", "postgres://simdeck@db:5432/simdeck")

	cfg, err := Load(writeConfig(t, `
store:
  driver: postgres
  dsn: ${SIMDECK_TEST_DSN}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.DSN != "postgres://simdeck@db:5432/simdeck" {
		t.Errorf("Expected substituted DSN, got %q", cfg.Store.DSN)
	}
}

func TestLoad_MissingRequiredEnvVar(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  dsn: ${SIMDECK_DEFINITELY_UNSET_DSN}\n"))
	if err == nil {
		t.Error("Expected error for unset required env var")
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  driver: sqlite\n"))
	if err == nil {
		t.Error("Expected error for unknown store driver")
	}
}

func TestLoad_InvalidAddr(t *testing.T) {
	tests := []string{
		"no-port-at-all",
		"localhost:",
		"localhost:notaport",
	}
	for _, addr := range tests {
		_, err := Load(writeConfig(t, "server:\n  addr: \""+addr+"\"\n"))
		if err == nil {
			t.Errorf("Expected error for addr %q", addr)
		}
	}
}

func TestLoad_BindAllInterfacesAddr(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  addr: \":8420\"\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8420" {
		t.Errorf("Expected addr ':8420', got %q", cfg.Server.Addr)
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  driver: postgres\n"))
	if err == nil {
		t.Error("Expected error when driver is postgres and dsn is empty")
	}
}

func TestLoad_KeyValueDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
store:
  driver: postgres
  dsn: host=localhost dbname=simdeck sslmode=disable
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.DSN != "host=localhost dbname=simdeck sslmode=disable" {
		t.Errorf("Unexpected DSN: %q", cfg.Store.DSN)
	}
}

func TestLoad_InvalidDSN(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  dsn: \"just some words\"\n"))
	if err == nil {
		t.Error("Expected error for malformed dsn")
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Expected error for explicitly named missing config file")
	}
}
