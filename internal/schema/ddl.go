// Package schema issues keyspace/table DDL and augments each configured
// query with its inferred kind, qualified table name, and derived
// attribute metadata.
//
// DDL is issued as plain strings through the DDLExecutor passed to Prepare
// (cmd/colt opens a dedicated session for it and closes it afterwards).
// The DROP statements use IF EXISTS; CREATE statements are issued verbatim
// as configured, so they are idempotent only if the configured DDL says
// IF NOT EXISTS.
package schema

import (
	"context"

	"github.com/pkg/errors"
)

// DDLExecutor issues a single CQL statement with no return value. Schema
// preparation is not on any pipeline hot path, so github.com/pkg/errors
// wrapping (stack-capturing) is acceptable here — unlike the pipeline
// packages, which use plain fmt.Errorf to avoid that overhead per request.
type DDLExecutor interface {
	Exec(ctx context.Context, cql string) error
}

// DropKeyspace issues "DROP KEYSPACE IF EXISTS <name>".
func DropKeyspace(ctx context.Context, ddl DDLExecutor, name string) error {
	if err := ddl.Exec(ctx, "DROP KEYSPACE IF EXISTS "+name); err != nil {
		return errors.Wrapf(err, "schema: drop keyspace %q", name)
	}
	return nil
}

// DropTable issues "DROP TABLE IF EXISTS <keyspace>.<table>".
func DropTable(ctx context.Context, ddl DDLExecutor, keyspace, table string) error {
	if err := ddl.Exec(ctx, "DROP TABLE IF EXISTS "+keyspace+"."+table); err != nil {
		return errors.Wrapf(err, "schema: drop table %q.%q", keyspace, table)
	}
	return nil
}

// CreateKeyspace issues the keyspace's own CREATE KEYSPACE DDL string
// verbatim, as authored in config.
func CreateKeyspace(ctx context.Context, ddl DDLExecutor, definition string) error {
	if err := ddl.Exec(ctx, definition); err != nil {
		return errors.Wrap(err, "schema: create keyspace")
	}
	return nil
}

// CreateTable issues the table's own CREATE TABLE DDL string verbatim.
func CreateTable(ctx context.Context, ddl DDLExecutor, definition string) error {
	if err := ddl.Exec(ctx, definition); err != nil {
		return errors.Wrap(err, "schema: create table")
	}
	return nil
}
