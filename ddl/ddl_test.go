package ddl_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/ostcar/pgclone/catalog"
	"github.com/ostcar/pgclone/ddl"
)

func TestColumnDefinition(t *testing.T) {
	for _, tt := range []struct {
		name   string
		column catalog.Column
		expect string
	}{
		{
			"varchar not null",
			catalog.Column{Name: "colname", DataType: "varchar", MaxLength: 50},
			`"colname" varchar(50) NOT NULL`,
		},
		{
			"nullable int",
			catalog.Column{Name: "colname", DataType: "int", Nullable: true},
			`"colname" int`,
		},
		{
			"user defined",
			catalog.Column{Name: "status", DataType: "USER-DEFINED", UDTName: "enum_status", Nullable: true},
			`"status" enum_status`,
		},
		{
			"array",
			catalog.Column{Name: "tags", DataType: "ARRAY", UDTName: "_text", Nullable: true},
			`"tags" _text`,
		},
		{
			"type with spaces",
			catalog.Column{Name: "created", DataType: "timestamp without time zone", UDTName: "timestamp"},
			`"created" timestamp without time zone NOT NULL`,
		},
		{
			"character varying",
			catalog.Column{Name: "name", DataType: "character varying", UDTName: "varchar", MaxLength: 100, Nullable: true},
			`"name" character varying(100)`,
		},
		{
			"quoted name",
			catalog.Column{Name: `we"ird`, DataType: "text", Nullable: true},
			`"we""ird" text`,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := ddl.ColumnDefinition(tt.column); got != tt.expect {
				t.Errorf("ColumnDefinition() == %q, expected %q", got, tt.expect)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	tables := map[string][]catalog.Column{
		"users": {
			{Name: "id", Position: 1, DataType: "integer"},
			{Name: "name", Position: 2, DataType: "character varying", MaxLength: 100, Nullable: true},
		},
		"orders": {
			{Name: "user_id", Position: 2, DataType: "integer", Nullable: true},
			{Name: "id", Position: 1, DataType: "integer"},
		},
	}

	got := ddl.Synthesize("public", tables)

	expect := []ddl.Statement{
		{
			Table:  "orders",
			Drop:   `DROP TABLE IF EXISTS "public"."orders" CASCADE`,
			Create: `CREATE TABLE "public"."orders" ("id" integer NOT NULL, "user_id" integer)`,
		},
		{
			Table:  "users",
			Drop:   `DROP TABLE IF EXISTS "public"."users" CASCADE`,
			Create: `CREATE TABLE "public"."users" ("id" integer NOT NULL, "name" character varying(100))`,
		},
	}

	if !reflect.DeepEqual(got, expect) {
		t.Errorf("Synthesize() ==\n%v\nexpected\n%v", got, expect)
	}
}

func TestSynthesizeOneStatementPerTable(t *testing.T) {
	for _, count := range []int{0, 1, 7, 50} {
		t.Run(fmt.Sprintf("%d tables", count), func(t *testing.T) {
			tables := make(map[string][]catalog.Column, count)
			for i := range count {
				tables[fmt.Sprintf("table_%03d", i)] = []catalog.Column{
					{Name: "c", Position: 1, DataType: "text", Nullable: true},
				}
			}

			got := ddl.Synthesize("public", tables)

			if len(got) != count {
				t.Fatalf("got %d statements, expected %d", len(got), count)
			}

			for i, stmt := range got {
				expect := fmt.Sprintf("table_%03d", i)
				if stmt.Table != expect {
					t.Errorf("statement %d is for table %s, expected %s", i, stmt.Table, expect)
				}

				if stmt.Drop == "" || stmt.Create == "" {
					t.Errorf("statement for %s is not paired: %+v", stmt.Table, stmt)
				}
			}
		})
	}
}

func TestSynthesizeZeroColumns(t *testing.T) {
	got := ddl.Synthesize("public", map[string][]catalog.Column{"empty": {}})

	if len(got) != 1 {
		t.Fatalf("got %d statements, expected 1", len(got))
	}

	if expect := `CREATE TABLE "public"."empty" ()`; got[0].Create != expect {
		t.Errorf("Create == %q, expected %q", got[0].Create, expect)
	}
}

func TestStatementSQL(t *testing.T) {
	stmt := ddl.Statement{
		Table:  "a",
		Drop:   `DROP TABLE IF EXISTS "public"."a" CASCADE`,
		Create: `CREATE TABLE "public"."a" ("id" integer)`,
	}

	expect := `DROP TABLE IF EXISTS "public"."a" CASCADE; CREATE TABLE "public"."a" ("id" integer);`
	if got := stmt.SQL(); got != expect {
		t.Errorf("SQL() == %q, expected %q", got, expect)
	}
}

func TestSynthesizeDoesNotReorderInput(t *testing.T) {
	columns := []catalog.Column{
		{Name: "b", Position: 2, DataType: "text", Nullable: true},
		{Name: "a", Position: 1, DataType: "text", Nullable: true},
	}

	ddl.Synthesize("public", map[string][]catalog.Column{"t": columns})

	if columns[0].Name != "b" {
		t.Errorf("Synthesize changed the order of its input")
	}
}
