// Package transfer copies the rows of one table from a source to a destination
// database with the binary COPY protocol.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

// CopyToer is implemented by *pgconn.PgConn.
type CopyToer interface {
	CopyTo(ctx context.Context, w io.Writer, sql string) (pgconn.CommandTag, error)
}

// CopyFromer is implemented by *pgconn.PgConn.
type CopyFromer interface {
	CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)
}

// Direction names the side of a transfer that failed.
type Direction string

// The two sides of a transfer.
const (
	Export Direction = "export"
	Import Direction = "import"
)

// Error is returned when the transfer of a table fails.
type Error struct {
	Table     string
	Direction Direction
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("copy table %s: %s: %v", e.Table, e.Direction, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes the transfer of one table.
type Result struct {
	Table    string
	Rows     int64
	Bytes    int64
	Duration time.Duration

	// Err is nil if the table was copied.
	Err error
}

// errImportStopped is given to the export when the import returned before
// reading all data.
var errImportStopped = errors.New("import stopped")

// Table streams all rows of a table from src to dst.
//
// The destination table has to exist with the same column layout. The data is
// not buffered beyond the copy buffers of the connections.
func Table(ctx context.Context, src CopyToer, dst CopyFromer, schema, table string) (Result, error) {
	ident := pgx.Identifier{schema, table}.Sanitize()
	exportSQL := fmt.Sprintf("COPY (SELECT * FROM %s) TO STDOUT WITH BINARY", ident)
	importSQL := fmt.Sprintf("COPY %s FROM STDIN WITH BINARY", ident)

	start := time.Now()
	pr, pw := io.Pipe()
	counter := &countingWriter{w: pw}

	var eg errgroup.Group
	eg.Go(func() error {
		_, err := src.CopyTo(ctx, counter, exportSQL)
		pw.CloseWithError(err)
		return err
	})

	tag, importErr := dst.CopyFrom(ctx, pr, importSQL)
	pr.CloseWithError(errImportStopped)
	exportErr := eg.Wait()

	result := Result{
		Table:    table,
		Rows:     tag.RowsAffected(),
		Bytes:    counter.n,
		Duration: time.Since(start),
	}

	switch {
	case exportErr != nil && !errors.Is(exportErr, errImportStopped):
		result.Err = &Error{Table: table, Direction: Export, Err: exportErr}
	case importErr != nil:
		result.Err = &Error{Table: table, Direction: Import, Err: importErr}
	case exportErr != nil:
		result.Err = &Error{Table: table, Direction: Export, Err: exportErr}
	}

	if result.Err != nil {
		result.Rows = 0
		return result, result.Err
	}

	return result, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
