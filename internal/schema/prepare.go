package schema

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/internal/randgen"
	"github.com/elchinoo/colt/pkg/types"
)

// Prepare issues every configured keyspace/table's DDL (dropping first if
// cfg.DeleteOld) and augments every workload query in place with its
// inferred Kind, qualified Table name, and derived Attributes.
// Query.Stmt is set to the query's own CQL string, which
// dbclient.GocqlExecutor treats as its bindable statement handle (gocql
// caches prepared statements internally per session, so no separate
// preparation round trip is needed here).
func Prepare(ctx context.Context, cfg *types.Config, ddl DDLExecutor) error {
	for ksName, ks := range cfg.Schemata {
		if cfg.DeleteOld {
			if err := DropKeyspace(ctx, ddl, ksName); err != nil {
				return err
			}
		}
		if err := CreateKeyspace(ctx, ddl, ks.Definition); err != nil {
			return err
		}
		for tblName, tbl := range ks.Tables {
			if cfg.DeleteOld {
				if err := DropTable(ctx, ddl, ksName, tblName); err != nil {
					return err
				}
			}
			_ = tbl // definition issued below, tbl kept for clarity of intent
			if err := CreateTable(ctx, ddl, tbl.Definition); err != nil {
				return err
			}
		}
	}

	for workloadName, wl := range cfg.Workloads {
		for i, q := range wl.Queries {
			if err := prepareQuery(cfg, q); err != nil {
				return fmt.Errorf("schema: workload %q query %d: %w", workloadName, i, err)
			}
		}
	}

	return nil
}

func prepareQuery(cfg *types.Config, q *types.Query) error {
	q.Kind = types.InferQueryKind(q.CQL)
	if q.Kind == types.QueryUnknown {
		return fmt.Errorf("%w: %q", errs.ErrUnknownQueryKind, q.CQL)
	}

	keyspace, table, err := extractTableName(q.CQL)
	if err != nil {
		return err
	}
	q.Table = keyspace + "@" + table

	columns, err := extractBindColumns(q.Kind, q.CQL)
	if err != nil {
		return err
	}

	distributions := lookupDistributions(cfg, keyspace, table)
	attrs := make([]types.Attribute, 0, len(columns))
	for _, col := range columns {
		colArgs, ok := distributions[col]
		if !ok {
			return fmt.Errorf("schema: table %q: no distribution configured for bound column %q", q.Table, col)
		}
		typeTag, _ := colArgs["type"].(string)
		if typeTag == "" {
			return fmt.Errorf("schema: table %q column %q: distribution missing required \"type\"", q.Table, col)
		}
		if _, ok := randgen.NewRegistry().Lookup(typeTag); !ok {
			return fmt.Errorf("schema: table %q column %q: %w: %q", q.Table, col, errs.ErrUnknownGeneratorType, typeTag)
		}
		levelStr, _ := colArgs["level"].(string)
		if levelStr == "" {
			levelStr = "attribute"
		}
		level, err := types.ParseAttrLevel(levelStr)
		if err != nil {
			return fmt.Errorf("schema: table %q column %q: %w", q.Table, col, err)
		}

		attrs = append(attrs, types.Attribute{
			Name:  col,
			Type:  typeTag,
			Level: level,
			Args:  generatorArgs(colArgs),
			Hash:  types.ColumnHash(q.Table, col),
		})
	}
	q.Attributes = attrs
	q.Stmt = q.CQL
	return nil
}

func lookupDistributions(cfg *types.Config, keyspace, table string) map[string]map[string]any {
	ks, ok := cfg.Schemata[keyspace]
	if !ok {
		return nil
	}
	tbl, ok := ks.Tables[table]
	if !ok {
		return nil
	}
	return tbl.Distributions
}

// generatorArgs returns colArgs without the schema-level "type"/"level"
// keys, leaving only the column's actual generator parameters.
func generatorArgs(colArgs map[string]any) map[string]any {
	out := make(map[string]any, len(colArgs))
	for k, v := range colArgs {
		if k == "type" || k == "level" {
			continue
		}
		out[k] = v
	}
	return out
}

var (
	reInsertInto = regexp.MustCompile(`(?is)insert\s+into\s+([\w.]+)\s*\(([^)]*)\)\s*values\s*\(([^)]*)\)`)
	reFromOrInto = regexp.MustCompile(`(?is)(?:from|into|update)\s+([\w.]+)`)
	reColumnBind = regexp.MustCompile(`(?i)([\w]+)\s*(?:=|in)\s*\?`)
)

// extractTableName returns the (keyspace, table) pair named by the CQL's
// FROM/INTO/UPDATE clause. A bare table name (no "." qualifier) is
// returned with an empty keyspace; prepareQuery does not resolve it to a
// configured keyspace, so its distribution lookup finds nothing and
// preparation fails for any bound column.
func extractTableName(cql string) (keyspace, table string, err error) {
	m := reFromOrInto.FindStringSubmatch(cql)
	if m == nil {
		return "", "", fmt.Errorf("schema: could not find a table name in query %q", cql)
	}
	full := m[1]
	if idx := strings.IndexByte(full, '.'); idx >= 0 {
		return full[:idx], full[idx+1:], nil
	}
	return "", full, nil
}

// extractBindColumns returns the column names bound to this query's '?'
// placeholders, in textual left-to-right order — the same order gocql
// assigns bind positions, so Query.Attributes lines up with them directly.
func extractBindColumns(kind types.QueryKind, cql string) ([]string, error) {
	if kind == types.QueryInsert {
		m := reInsertInto.FindStringSubmatch(cql)
		if m == nil {
			return nil, fmt.Errorf("schema: could not parse INSERT column list from %q", cql)
		}
		cols := splitAndTrim(m[2])
		placeholders := splitAndTrim(m[3])
		if len(cols) != len(placeholders) {
			return nil, fmt.Errorf("schema: INSERT column count (%d) does not match value count (%d) in %q", len(cols), len(placeholders), cql)
		}
		return cols, nil
	}

	matches := reColumnBind.FindAllStringSubmatch(cql, -1)
	cols := make([]string, 0, len(matches))
	for _, m := range matches {
		cols = append(cols, m[1])
	}
	return cols, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
