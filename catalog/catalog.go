// Package catalog reads tables and columns from the information_schema of a
// postgres database.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is implemented by *pgx.Conn.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column describes one column of a table.
type Column struct {
	Name     string
	Position int

	// DataType is the value of information_schema.columns.data_type. For
	// enums, domains over user types and arrays it is a generic marker like
	// USER-DEFINED.
	DataType string

	// UDTName is the name of the underlying type.
	UDTName string

	// MaxLength is the declared maximum character length or 0.
	MaxLength int
	Nullable  bool
}

// ReadError is returned when reading the catalog fails.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read catalog: %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

const sqlTables = `
SELECT table_name::text
FROM information_schema.tables
WHERE table_schema = $1
AND table_type = 'BASE TABLE'
ORDER BY format('%I.%I', table_schema, table_name)::regclass::oid`

// ListTables returns the names of all base tables in the schema in the order
// they were created.
func ListTables(ctx context.Context, conn Querier, schema string) ([]string, error) {
	rows, err := conn.Query(ctx, sqlTables, schema)
	if err != nil {
		return nil, &ReadError{Op: "list tables", Err: err}
	}

	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &ReadError{Op: "list tables", Err: err}
	}

	return tables, nil
}

// The left join keeps tables without columns.
const sqlColumns = `
SELECT
	t.table_name::text,
	c.column_name::text,
	c.ordinal_position::int,
	c.data_type::text,
	c.udt_name::text,
	c.character_maximum_length::int,
	c.is_nullable::text
FROM information_schema.tables t
LEFT JOIN information_schema.columns c
	ON c.table_schema = t.table_schema AND c.table_name = t.table_name
WHERE t.table_schema = $1
AND t.table_type = 'BASE TABLE'
ORDER BY t.table_name, c.ordinal_position`

// DescribeColumns returns the columns of every base table in the schema,
// ordered by their ordinal position.
//
// Every table is in the result. Tables without columns have an empty slice.
func DescribeColumns(ctx context.Context, conn Querier, schema string) (map[string][]Column, error) {
	rows, err := conn.Query(ctx, sqlColumns, schema)
	if err != nil {
		return nil, &ReadError{Op: "describe columns", Err: err}
	}

	tables := make(map[string][]Column)
	err = forEachRow(rows, func(row pgx.CollectableRow) error {
		var (
			table     string
			name      *string
			position  *int32
			dataType  *string
			udtName   *string
			maxLength *int32
			nullable  *string
		)

		if err := row.Scan(&table, &name, &position, &dataType, &udtName, &maxLength, &nullable); err != nil {
			return fmt.Errorf("scan: %w", err)
		}

		if _, ok := tables[table]; !ok {
			tables[table] = []Column{}
		}

		if name == nil {
			return nil
		}

		col := Column{
			Name:     *name,
			DataType: deref(dataType),
			UDTName:  deref(udtName),
			Nullable: deref(nullable) != "NO",
		}

		if position != nil {
			col.Position = int(*position)
		}

		if maxLength != nil {
			col.MaxLength = int(*maxLength)
		}

		tables[table] = append(tables[table], col)
		return nil
	})
	if err != nil {
		return nil, &ReadError{Op: "describe columns", Err: err}
	}

	return tables, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// forEachRow is like pgx.ForEachRow but uses CollectableRow instead of scan.
func forEachRow(rows pgx.Rows, fn func(row pgx.CollectableRow) error) error {
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
