package dbclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elchinoo/colt/pkg/types"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// GocqlExecutor is the Executor backed by a real Cassandra session. It is
// built in a post-construction Attach hook rather than at dispatcher.New
// time: the session must be opened by the worker goroutine that will use
// it, not by whatever goroutine constructs the dispatcher, so each
// dispatcher worker opens its own session only once it is actually
// running.
type GocqlExecutor struct {
	session *gocql.Session
}

// DialGocql opens a session from the config.database.connection_arguments
// map: hosts ([]string), keyspace (string), consistency (string, optional,
// default Quorum), and connect_timeout_ms (int, optional).
func DialGocql(args map[string]any) (*GocqlExecutor, error) {
	hosts, err := stringSlice(args["hosts"])
	if err != nil {
		return nil, errors.Wrap(err, "dbclient: connection_arguments.hosts")
	}
	if len(hosts) == 0 {
		return nil, errors.New("dbclient: connection_arguments.hosts must name at least one host")
	}

	cluster := gocql.NewCluster(hosts...)

	if ks, ok := args["keyspace"].(string); ok && ks != "" {
		cluster.Keyspace = ks
	}

	cluster.Consistency = gocql.Quorum
	if c, ok := args["consistency"].(string); ok && c != "" {
		consistency, err := parseConsistency(c)
		if err != nil {
			return nil, errors.Wrap(err, "dbclient: connection_arguments.consistency")
		}
		cluster.Consistency = consistency
	}

	cluster.Timeout = 10 * time.Second
	if ms, ok := numericArg(args["connect_timeout_ms"]); ok {
		cluster.Timeout = time.Duration(ms) * time.Millisecond
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrap(err, "dbclient: create gocql session")
	}

	return &GocqlExecutor{session: session}, nil
}

// Submit executes the query's CQL (stored in Query.Stmt by schema
// preparation) on a background goroutine, never blocking the dispatcher
// loop. The dispatcher is responsible for not calling Submit faster than
// the pending-response queue can absorb.
func (e *GocqlExecutor) Submit(ctx context.Context, query *types.Query, boundValues []any) (ResultHandle, error) {
	cql, ok := query.Stmt.(string)
	if !ok || cql == "" {
		cql = query.CQL
	}

	fut := newFuture()
	go func() {
		err := e.session.Query(cql, boundValues...).WithContext(ctx).Exec()
		fut.finish(err)
	}()
	return fut, nil
}

// Close releases the underlying session. Called on dispatcher worker exit.
func (e *GocqlExecutor) Close() {
	e.session.Close()
}

// Exec runs a single DDL statement synchronously, satisfying
// schema.DDLExecutor without schema needing to import gocql directly.
func (e *GocqlExecutor) Exec(ctx context.Context, cql string) error {
	return e.session.Query(cql).WithContext(ctx).Exec()
}

func stringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return strings.Split(vv, ","), nil
	default:
		return nil, fmt.Errorf("expected a list of hosts, got %T", v)
	}
}

func numericArg(v any) (int, bool) {
	switch vv := v.(type) {
	case int:
		return vv, true
	case int64:
		return int(vv), true
	case float64:
		return int(vv), true
	default:
		return 0, false
	}
}

func parseConsistency(s string) (gocql.Consistency, error) {
	switch strings.ToLower(s) {
	case "any":
		return gocql.Any, nil
	case "one":
		return gocql.One, nil
	case "two":
		return gocql.Two, nil
	case "three":
		return gocql.Three, nil
	case "quorum":
		return gocql.Quorum, nil
	case "all":
		return gocql.All, nil
	case "local_quorum":
		return gocql.LocalQuorum, nil
	case "each_quorum":
		return gocql.EachQuorum, nil
	case "local_one":
		return gocql.LocalOne, nil
	default:
		return 0, fmt.Errorf("unknown consistency level %q", s)
	}
}
