// internal/config/config.go
package config

import (
	"fmt"

	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/pkg/types"

	"github.com/spf13/viper"
)

// Load reads, unmarshals, and validates a run configuration from a YAML
// file. CQL statement classification (types.InferQueryKind) is applied to
// every query at load time so validation can reject unclassifiable
// queries early; schema.Prepare later re-derives Kind and parses each
// query's CQL again for its table and bound columns. Validation failures
// wrap errs.ErrConfigInvalid.
func Load(configFile string) (*types.Config, error) {
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	classifyQueries(&cfg)

	if err := validateTags(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfigInvalid, err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfigInvalid, err)
	}

	return &cfg, nil
}

func classifyQueries(cfg *types.Config) {
	for _, wl := range cfg.Workloads {
		for _, q := range wl.Queries {
			q.Kind = types.InferQueryKind(q.CQL)
		}
	}
}

func validateConfig(cfg *types.Config) error {
	if cfg.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}

	if len(cfg.Schemata) == 0 {
		return fmt.Errorf("at least one schema must be configured")
	}
	for ksName, ks := range cfg.Schemata {
		if ks.Definition == "" {
			return fmt.Errorf("schema %q: definition (keyspace DDL) is required", ksName)
		}
		if len(ks.Tables) == 0 {
			return fmt.Errorf("schema %q: at least one table must be configured", ksName)
		}
		for tblName, tbl := range ks.Tables {
			if tbl.Definition == "" {
				return fmt.Errorf("schema %q table %q: definition (table DDL) is required", ksName, tblName)
			}
		}
	}

	if len(cfg.Workloads) == 0 {
		return fmt.Errorf("at least one workload must be configured")
	}
	ratioSum := 0
	for name, wl := range cfg.Workloads {
		if wl.Ratio <= 0 {
			return fmt.Errorf("workload %q: ratio must be positive, got %d", name, wl.Ratio)
		}
		ratioSum += wl.Ratio
		if len(wl.Queries) == 0 {
			return fmt.Errorf("workload %q: at least one query must be configured", name)
		}
		for i, q := range wl.Queries {
			if q.CQL == "" {
				return fmt.Errorf("workload %q query %d: query is required", name, i)
			}
			if q.Chance < 0 || q.Chance > 1 {
				return fmt.Errorf("workload %q query %d: chance must be in [0,1], got %v", name, i, q.Chance)
			}
			if q.Kind == types.QueryUnknown {
				return fmt.Errorf("workload %q query %d: could not infer query kind from %q", name, i, q.CQL)
			}
		}
	}
	if ratioSum <= 0 {
		return fmt.Errorf("sum of workload ratios must be positive, got %d", ratioSum)
	}

	if cfg.TerminationConditions.Latency.Max < 0 {
		return fmt.Errorf("termination_conditions.latency.max must be non-negative")
	}
	if cfg.TerminationConditions.Latency.Max > 0 && cfg.TerminationConditions.Latency.Consecutive <= 0 {
		return fmt.Errorf("termination_conditions.latency.consecutive must be positive when latency.max is set")
	}
	if cfg.TerminationConditions.Queries.Max < 0 {
		return fmt.Errorf("termination_conditions.queries.max must be non-negative")
	}
	if cfg.TerminationConditions.Queries.Max > 0 && cfg.TerminationConditions.Queries.Consecutive <= 0 {
		return fmt.Errorf("termination_conditions.queries.consecutive must be positive when queries.max is set")
	}

	if cfg.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be non-negative, got %d", cfg.MaxWorkers)
	}
	if cfg.QueueTargetSize < 0 {
		return fmt.Errorf("queue_target_size must be non-negative, got %d", cfg.QueueTargetSize)
	}

	return nil
}
