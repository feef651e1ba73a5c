// Package ddl builds the statements that recreate the tables of a source
// database on the destination.
package ddl

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ostcar/pgclone/catalog"
)

// Statement drops and recreates one table.
type Statement struct {
	Table  string
	Drop   string
	Create string
}

// SQL returns the drop and the create statement as one string.
//
// When sent with the simple protocol, postgres runs both statements in one
// implicit transaction.
func (s Statement) SQL() string {
	return s.Drop + "; " + s.Create + ";"
}

func (s Statement) String() string {
	return s.SQL()
}

// Synthesize returns one statement for each table ordered by table name.
//
// A table without columns is created as a table with zero columns.
func Synthesize(schema string, tables map[string][]catalog.Column) []Statement {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	statements := make([]Statement, 0, len(names))
	for _, name := range names {
		statements = append(statements, tableStatement(schema, name, tables[name]))
	}
	return statements
}

func tableStatement(schema, table string, columns []catalog.Column) Statement {
	columns = slices.Clone(columns)
	slices.SortStableFunc(columns, func(a, b catalog.Column) int {
		return a.Position - b.Position
	})

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = ColumnDefinition(col)
	}

	ident := pgx.Identifier{schema, table}.Sanitize()
	return Statement{
		Table:  table,
		Drop:   fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", ident),
		Create: fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(defs, ", ")),
	}
}

// ColumnDefinition renders one column for a CREATE TABLE statement.
func ColumnDefinition(col catalog.Column) string {
	var sb strings.Builder
	sb.WriteString(pgx.Identifier{col.Name}.Sanitize())
	sb.WriteString(" ")
	sb.WriteString(TypeName(col))

	if col.MaxLength > 0 {
		fmt.Fprintf(&sb, "(%d)", col.MaxLength)
	}

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}

	return sb.String()
}

// TypeName returns the type of the column as it can be used in DDL.
//
// Generic markers from the information_schema are replaced with the name of the
// underlying type.
func TypeName(col catalog.Column) string {
	switch col.DataType {
	case "USER-DEFINED", "ARRAY":
		return col.UDTName
	default:
		return col.DataType
	}
}
