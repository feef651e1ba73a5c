package pgtest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jackc/pgx/v5"
)

// InsertYAML inserts rows given as yaml into existing tables.
//
// The document maps table names to a list of rows:
//
//	users:
//	  - {id: 1, name: alice}
//	  - {id: 2, name: bob}
func InsertYAML(ctx context.Context, conn *pgx.Conn, data string) error {
	var dataByTable map[string][]map[string]any
	if err := yaml.Unmarshal([]byte(data), &dataByTable); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}

	tables := make([]string, 0, len(dataByTable))
	for table := range dataByTable {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		if err := insertRowsForTable(ctx, conn, table, dataByTable[table]); err != nil {
			return fmt.Errorf("insert data for table %s: %w", table, err)
		}
	}

	return nil
}

func insertRowsForTable(ctx context.Context, conn *pgx.Conn, tableName string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	columnSet := make(map[string]bool)
	for _, row := range rows {
		for field := range row {
			columnSet[field] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{tableName}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	batch := &pgx.Batch{}
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, column := range columns {
			values[i] = row[column]
		}
		batch.Queue(query, values...)
	}

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("execute batch insert row %d: %w", i, err)
		}
	}

	return nil
}
