// Package types provides the core configuration and schema data structures
// shared across colt: the workload/query/attribute model loaded from YAML,
// and the runtime Config that drives a single load-generation run.
//
// The types package is the contract between the config loader, the schema
// preparer, and the generator pipeline: all three operate on the same
// Config value, mutated in place as preparation augments each Query with
// its prepared statement and derived attribute metadata.
package types

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Config is the complete configuration for a colt run, unmarshaled from a
// single YAML document via viper/mapstructure.
type Config struct {
	Database struct {
		Type                string         `mapstructure:"type" validate:"required"`
		ConnectionArguments map[string]any `mapstructure:"connection_arguments"`
	} `mapstructure:"database"`

	DeleteOld bool `mapstructure:"delete_old"`

	TerminationConditions struct {
		Latency struct {
			Max         float64 `mapstructure:"max" validate:"gte=0"`
			Consecutive int     `mapstructure:"consecutive" validate:"gte=0"`
		} `mapstructure:"latency"`
		Queries struct {
			Max         int64 `mapstructure:"max" validate:"gte=0"`
			Consecutive int   `mapstructure:"consecutive" validate:"gte=0"`
		} `mapstructure:"queries"`
	} `mapstructure:"termination_conditions"`

	Schemata map[string]Keyspace `mapstructure:"schemata" validate:"required,min=1,dive"`

	Workloads map[string]Workload `mapstructure:"workloads" validate:"required,min=1,dive"`

	// MaxWorkers caps the worker count of each stage class separately (it
	// is passed to the Supervisor as MaxWorkersPerClass); the total across
	// all classes is not capped. Zero means the Supervisor's built-in
	// default.
	MaxWorkers int `mapstructure:"max_workers" validate:"gte=0"`

	// QueueTargetSize is the bounded-queue target capacity T shared by
	// every inter-stage queue; low-water is always T/2.
	QueueTargetSize int `mapstructure:"queue_target_size" validate:"gte=0"`

	Logging struct {
		Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
		Format      string `mapstructure:"format" validate:"omitempty,oneof=json console"`
		Output      string `mapstructure:"output"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"logging"`
}

// Keyspace holds a keyspace's DDL and the DDL plus distributions of each of
// its tables.
type Keyspace struct {
	Definition string           `mapstructure:"definition" validate:"required"`
	Tables     map[string]Table `mapstructure:"tables" validate:"required,min=1,dive"`
}

// Table holds a single table's DDL and, optionally, per-column generator
// argument overrides.
type Table struct {
	Definition    string                    `mapstructure:"definition" validate:"required"`
	Distributions map[string]map[string]any `mapstructure:"distributions"`
}

// Workload is a named, weighted group of queries. The weighted Ratio sum
// across all configured workloads defines selection probability.
type Workload struct {
	Ratio   int      `mapstructure:"ratio" validate:"required,gt=0"`
	Queries []*Query `mapstructure:"queries" validate:"required,min=1,dive"`
}

// QueryKind is the CQL statement class inferred from a query's first six
// lowercased characters.
type QueryKind int

const (
	QueryUnknown QueryKind = iota
	QueryInsert
	QuerySelect
	QueryUpdate
	QueryDelete
)

func (k QueryKind) String() string {
	switch k {
	case QueryInsert:
		return "insert"
	case QuerySelect:
		return "select"
	case QueryUpdate:
		return "update"
	case QueryDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// InferQueryKind maps a CQL statement's first six lowercased characters to
// a QueryKind.
func InferQueryKind(cql string) QueryKind {
	trimmed := strings.TrimSpace(cql)
	if len(trimmed) < 6 {
		return QueryUnknown
	}
	switch strings.ToLower(trimmed[:6]) {
	case "insert":
		return QueryInsert
	case "select":
		return QuerySelect
	case "update":
		return QueryUpdate
	case "delete":
		return QueryDelete
	default:
		return QueryUnknown
	}
}

// Query is one parameterized CQL statement within a Workload. CQL and
// Chance come from config; Kind, Table, and Attributes are derived during
// schema preparation (internal/schema).
type Query struct {
	CQL    string  `mapstructure:"query" validate:"required"`
	Chance float64 `mapstructure:"chance" validate:"gte=0,lte=1"`

	Kind       QueryKind
	Table      string
	Attributes []Attribute

	// Stmt is the statement handle bound to this query once schema
	// preparation runs. schema.Prepare sets it to the query's CQL string,
	// and dbclient.GocqlExecutor type-asserts it back to a string (declared
	// here as any to avoid an import cycle between types and dbclient).
	Stmt any
}

// AttrLevel selects which of the three TableKeyState seeds (partition,
// cluster, update) an Attribute's value is derived from.
type AttrLevel int

const (
	LevelPartition AttrLevel = iota
	LevelCluster
	LevelAttribute
)

// ParseAttrLevel parses the schema-yaml level string.
func ParseAttrLevel(s string) (AttrLevel, error) {
	switch strings.ToLower(s) {
	case "partition":
		return LevelPartition, nil
	case "cluster":
		return LevelCluster, nil
	case "attribute":
		return LevelAttribute, nil
	default:
		return 0, fmt.Errorf("types: unknown attribute level %q", s)
	}
}

// Attribute is one bound column of a Query: its generator type tag, which
// seed it draws from, its generator args, and a stable per-column hash
// that keeps same-level attributes from colliding on the same seed.
type Attribute struct {
	Name string
	Type string
	Level AttrLevel
	Args  map[string]any
	Hash  uint64
}

// ColumnHash derives an Attribute's stable per-column hash from its table
// and column name, so two attributes at the same level on the same table
// never reduce to the same seed.
func ColumnHash(table, column string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(table))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(column))
	return h.Sum64()
}
