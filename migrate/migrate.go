// Package migrate copies the schema and the data of one postgres database to
// another.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ostcar/pgclone/catalog"
	"github.com/ostcar/pgclone/clonelog"
	"github.com/ostcar/pgclone/database"
	"github.com/ostcar/pgclone/ddl"
	"github.com/ostcar/pgclone/transfer"
)

// ConnectError is returned when a connection can not be opened.
type ConnectError struct {
	// Role is source or destination.
	Role string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Role, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ApplyError is returned when a statement fails on the destination. The
// statements before it were already applied.
type ApplyError struct {
	Table     string
	Statement string
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("recreate table %s: %v", e.Table, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Report is the outcome of a migration.
type Report struct {
	// Tables contains one result for each table, that was tried to copy. On
	// failure, the last result contains the error.
	Tables []transfer.Result
}

// Rows returns the number of copied rows.
func (r Report) Rows() int64 {
	var rows int64
	for _, t := range r.Tables {
		rows += t.Rows
	}
	return rows
}

type copyTableFunc func(ctx context.Context, src transfer.CopyToer, dst transfer.CopyFromer, schema, table string) (transfer.Result, error)

// Migrator copies a database.
//
// A Migrator can only run once.
type Migrator struct {
	source      database.Descriptor
	destination database.Descriptor
	schema      string

	phase     Phase
	copyTable copyTableFunc
}

// New validates the config and initializes a Migrator. It does not open a
// connection.
func New(cfg Config) (*Migrator, error) {
	source, destination, err := cfg.parse()
	if err != nil {
		return nil, err
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	return &Migrator{
		source:      source,
		destination: destination,
		schema:      schema,
		copyTable:   transfer.Table,
	}, nil
}

// Phase returns the current phase.
func (m *Migrator) Phase() Phase {
	return m.phase
}

func (m *Migrator) setPhase(p Phase) {
	clonelog.Debug("Migration phase %s -> %s", m.phase, p)
	m.phase = p
}

// Run copies the schema and all tables.
//
// The first error stops the migration. Tables that were copied before stay on
// the destination.
func (m *Migrator) Run(ctx context.Context) (report Report, err error) {
	if m.phase != PhaseIdle {
		return Report{}, fmt.Errorf("migrator is in phase %s, expected %s", m.phase, PhaseIdle)
	}

	defer func() {
		if err != nil {
			m.setPhase(PhaseFailed)
			clonelog.Error("Migration failed: %v", err)
		}
	}()

	m.setPhase(PhaseConnecting)
	clonelog.Info("Connecting to databases")
	src, dst, closeConns, err := m.connect(ctx)
	if err != nil {
		return Report{}, err
	}
	defer closeConns()

	clonelog.Info("Recreating schema")
	if err := m.applySchema(ctx, src, dst); err != nil {
		return Report{}, err
	}
	m.setPhase(PhaseSchemaApplied)

	clonelog.Info("Getting table list")
	tables, err := catalog.ListTables(ctx, src, m.schema)
	if err != nil {
		return Report{}, err
	}
	clonelog.Info("Found %d tables to migrate", len(tables))

	m.setPhase(PhaseCopyingTables)
	for _, table := range tables {
		clonelog.Info("Copying %s", table)

		result, err := m.copyTable(ctx, src.PgConn(), dst.PgConn(), m.schema, table)
		if err != nil && result.Err == nil {
			result.Err = err
		}
		report.Tables = append(report.Tables, result)

		if err != nil {
			clonelog.Error("Error copying table %s: %v", table, err)
			return report, err
		}

		clonelog.Info("Successfully copied %s", table)
		clonelog.Metric("table", tableMetric(result))
	}

	m.setPhase(PhaseDone)
	clonelog.Info("Migration completed successfully: %d tables, %d rows", len(report.Tables), report.Rows())
	return report, nil
}

// Schema returns the statements that Run would apply to the destination.
//
// Only the source is opened.
func (m *Migrator) Schema(ctx context.Context) ([]ddl.Statement, error) {
	conn, err := database.Connect(ctx, m.source)
	if err != nil {
		return nil, &ConnectError{Role: "source", Err: err}
	}
	defer closeConn(conn, "source")

	return m.synthesize(ctx, conn)
}

// Validate opens and pings both databases.
func (m *Migrator) Validate(ctx context.Context) error {
	src, dst, closeConns, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConns()

	if err := src.Ping(ctx); err != nil {
		return &ConnectError{Role: "source", Err: fmt.Errorf("ping: %w", err)}
	}

	if err := dst.Ping(ctx); err != nil {
		return &ConnectError{Role: "destination", Err: fmt.Errorf("ping: %w", err)}
	}

	return nil
}

// connect opens both connections. The returned function closes them.
func (m *Migrator) connect(ctx context.Context) (src, dst *pgx.Conn, closeConns func(), err error) {
	src, err = database.Connect(ctx, m.source)
	if err != nil {
		return nil, nil, nil, &ConnectError{Role: "source", Err: err}
	}

	dst, err = database.Connect(ctx, m.destination)
	if err != nil {
		closeConn(src, "source")
		return nil, nil, nil, &ConnectError{Role: "destination", Err: err}
	}

	return src, dst, func() {
		closeConn(dst, "destination")
		closeConn(src, "source")
	}, nil
}

func closeConn(conn *pgx.Conn, role string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Close(ctx); err != nil {
		clonelog.Warn("Closing %s connection: %v", role, err)
	}
}

func (m *Migrator) synthesize(ctx context.Context, src *pgx.Conn) ([]ddl.Statement, error) {
	columns, err := catalog.DescribeColumns(ctx, src, m.schema)
	if err != nil {
		return nil, err
	}

	return ddl.Synthesize(m.schema, columns), nil
}

func (m *Migrator) applySchema(ctx context.Context, src, dst *pgx.Conn) error {
	statements, err := m.synthesize(ctx, src)
	if err != nil {
		return err
	}

	for _, stmt := range statements {
		sql := stmt.SQL()
		clonelog.Debug("Recreating table %s", stmt.Table)
		if _, err := dst.Exec(ctx, sql); err != nil {
			return &ApplyError{
				Table:     stmt.Table,
				Statement: sql,
				Err:       database.PrettyPostgresError(err, sql),
			}
		}
	}

	return nil
}

func tableMetric(r transfer.Result) map[string]any {
	return map[string]any{
		"table":       r.Table,
		"rows":        r.Rows,
		"bytes":       r.Bytes,
		"duration_ms": r.Duration.Milliseconds(),
	}
}

// IsSetupError returns true, if the error happened before any data was copied.
func IsSetupError(err error) bool {
	var (
		errConfig  *ConfigError
		errConnect *ConnectError
		errCatalog *catalog.ReadError
		errApply   *ApplyError
	)
	return errors.As(err, &errConfig) ||
		errors.As(err, &errConnect) ||
		errors.As(err, &errCatalog) ||
		errors.As(err, &errApply)
}
