package sink

import (
	"context"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// postgresSink loads the result with COPY inside one transaction. The table
// is created when missing, with text columns named after the output header.
type postgresSink struct {
	conn     *pgx.Conn
	table    pgx.Identifier
	truncate bool
}

func newPostgresSink(ctx context.Context, raw string, cfg config.PostgresConfig) (*postgresSink, error) {
	connString, table, truncate, err := parsePostgresURL(raw, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to connect to PostgreSQL")
	}
	return &postgresSink{conn: conn, table: table, truncate: truncate}, nil
}

// parsePostgresURL extracts the table and truncate settings from the query
// string and returns a connection string without them.
func parsePostgresURL(raw string, cfg config.PostgresConfig) (string, pgx.Identifier, bool, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, false, errors.Wrap(err, errors.ErrorTypeConfig, "invalid PostgreSQL URL")
	}

	q := u.Query()
	name := cfg.Table
	if t := q.Get("table"); t != "" {
		name = t
	}
	truncate := cfg.Truncate
	if t := q.Get("truncate"); t != "" {
		truncate = t == "true" || t == "1"
	}
	q.Del("table")
	q.Del("truncate")
	u.RawQuery = q.Encode()

	if name == "" {
		return "", nil, false, errors.New(errors.ErrorTypeConfig,
			"PostgreSQL output needs a table: add ?table=name or set output.postgres.table")
	}
	ident := pgx.Identifier(strings.Split(name, "."))
	for _, part := range ident {
		if part == "" {
			return "", nil, false, errors.Newf(errors.ErrorTypeConfig, "invalid table name %q", name)
		}
	}
	return u.String(), ident, truncate, nil
}

func (s *postgresSink) Scheme() Scheme { return SchemePostgres }

func (s *postgresSink) Close() error {
	return s.conn.Close(context.Background())
}

func (s *postgresSink) Write(ctx context.Context, out *Output) (*Receipt, error) {
	res := out.Result
	wrap := func(err error, msg string) error {
		return errors.Wrap(err, errors.ErrorTypeWrite, msg).WithDetail("table", s.table.Sanitize())
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createTableSQL(s.table, res)); err != nil {
		return nil, wrap(err, "failed to create table")
	}
	if s.truncate {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+s.table.Sanitize()); err != nil {
			return nil, wrap(err, "failed to truncate table")
		}
	}

	n, err := tx.CopyFrom(ctx, s.table, res.Columns, copyRows(res))
	if err != nil {
		return nil, wrap(err, "failed to copy rows")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrap(err, "failed to commit")
	}

	logger.WithContext(ctx).Info("output committed",
		zap.String("table", s.table.Sanitize()),
		zap.Int64("rows", n))

	return &Receipt{Location: s.table.Sanitize(), Rows: int(n)}, nil
}

// createTableSQL returns a CREATE TABLE IF NOT EXISTS statement for res.
// Identifier and category columns are NOT NULL; positional ones are nullable.
func createTableSQL(table pgx.Identifier, res *reshape.Result) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table.Sanitize())
	b.WriteString(" (")
	for i, col := range res.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{col}.Sanitize())
		b.WriteString(" text")
		if i <= len(res.IDColumns) {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

// copyRows adapts a result to COPY, sending missing values as NULL.
func copyRows(res *reshape.Result) pgx.CopyFromSource {
	return pgx.CopyFromSlice(res.Len(), func(i int) ([]any, error) {
		row := res.Rows[i]
		vals := make([]any, 0, len(res.Columns))
		for _, id := range row.IDs {
			vals = append(vals, id)
		}
		vals = append(vals, row.Category)
		for _, v := range row.Values {
			if v.Valid {
				vals = append(vals, v.S)
			} else {
				vals = append(vals, nil)
			}
		}
		return vals, nil
	})
}
