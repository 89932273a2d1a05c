package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elchinoo/colt/pkg/types"
)

const validConfigYAML = `
database:
  type: cassandra
  connection_arguments:
    hosts:
      - "127.0.0.1"

schemata:
  ks:
    definition: "CREATE KEYSPACE IF NOT EXISTS ks WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}"
    tables:
      users:
        definition: "CREATE TABLE IF NOT EXISTS ks.users (id uuid PRIMARY KEY, name text)"

workloads:
  inserts:
    ratio: 1
    queries:
      - query: "insert into ks.users (id, name) values (?, ?)"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Type != "cassandra" {
		t.Errorf("Database.Type = %q, want cassandra", cfg.Database.Type)
	}
	wl, ok := cfg.Workloads["inserts"]
	if !ok {
		t.Fatal("expected workload \"inserts\" to be loaded")
	}
	if wl.Queries[0].Kind != types.QueryInsert {
		t.Errorf("Kind = %v, want QueryInsert (inferred at load time)", wl.Queries[0].Kind)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a nonexistent config file")
	}
}

func TestLoadRejectsMissingDatabaseType(t *testing.T) {
	path := writeTempConfig(t, `
schemata:
  ks:
    definition: "CREATE KEYSPACE ks"
    tables:
      users:
        definition: "CREATE TABLE users"
workloads:
  inserts:
    ratio: 1
    queries:
      - query: "insert into ks.users (id) values (?)"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error when database.type is missing")
	}
}

func validConfig() *types.Config {
	var cfg types.Config
	cfg.Database.Type = "cassandra"
	cfg.Schemata = map[string]types.Keyspace{
		"ks": {
			Definition: "CREATE KEYSPACE ks",
			Tables: map[string]types.Table{
				"users": {Definition: "CREATE TABLE users"},
			},
		},
	}
	q := &types.Query{CQL: "insert into ks.users (id) values (?)", Kind: types.QueryInsert, Table: "ks@users"}
	cfg.Workloads = map[string]types.Workload{
		"inserts": {Ratio: 1, Queries: []*types.Query{q}},
	}
	return &cfg
}

func TestValidateConfigAcceptsAValidConfig(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Errorf("validateConfig() error = %v, want nil", err)
	}
	if err := validateTags(validConfig()); err != nil {
		t.Errorf("validateTags() error = %v, want nil", err)
	}
}

func TestValidateConfigRejectsZeroRatioSum(t *testing.T) {
	cfg := validConfig()
	cfg.Workloads["inserts"] = types.Workload{Ratio: 0, Queries: cfg.Workloads["inserts"].Queries}
	if err := validateConfig(cfg); err == nil {
		t.Error("expected an error for a non-positive workload ratio")
	}
}

func TestValidateConfigRejectsOutOfRangeChance(t *testing.T) {
	cfg := validConfig()
	cfg.Workloads["inserts"].Queries[0].Chance = 1.5
	if err := validateConfig(cfg); err == nil {
		t.Error("expected an error for a chance outside [0,1]")
	}
}

func TestValidateConfigRequiresConsecutiveWhenLatencyMaxSet(t *testing.T) {
	cfg := validConfig()
	cfg.TerminationConditions.Latency.Max = 100
	cfg.TerminationConditions.Latency.Consecutive = 0
	if err := validateConfig(cfg); err == nil {
		t.Error("expected an error when latency.max is set without latency.consecutive")
	}
}

func TestValidateTagsRejectsEmptyWorkloads(t *testing.T) {
	cfg := validConfig()
	cfg.Workloads = map[string]types.Workload{}
	if err := validateTags(cfg); err == nil {
		t.Error("expected a tag-validation error for an empty workloads map")
	}
}
