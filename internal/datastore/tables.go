package datastore

import (
	"slices"
	"strings"
)

// Destination table names.
const (
	TableMetadata = "artifact_metadata"
	TableMedia    = "artifact_media"
	TableColors   = "artifact_colors"
)

// Column describes one destination column with its per-dialect SQL type.
type Column struct {
	Name       string
	MySQLType  string
	SQLiteType string
}

func (c Column) sqlType(d Dialect) string {
	if d == DialectMySQL {
		return c.MySQLType
	}
	return c.SQLiteType
}

// Table describes a destination table. Key is the column whose NULL
// values are rejected by the loader; it is the primary key when
// PrimaryKey is set. References names the table Key points at.
type Table struct {
	Name       string
	Columns    []Column
	Key        string
	PrimaryKey bool
	References string
}

func intCol(name string) Column {
	return Column{Name: name, MySQLType: "INT", SQLiteType: "INTEGER"}
}

func textCol(name string) Column {
	return Column{Name: name, MySQLType: "TEXT", SQLiteType: "TEXT"}
}

// tables lists the destination tables in load order.
var tables = []Table{
	{
		Name: TableMetadata,
		Columns: []Column{
			intCol("id"),
			textCol("title"),
			textCol("culture"),
			textCol("period"),
			textCol("century"),
			textCol("medium"),
			textCol("dimensions"),
			textCol("description"),
			textCol("department"),
			textCol("classification"),
			intCol("accessionyear"),
			textCol("accessionmethod"),
		},
		Key:        "id",
		PrimaryKey: true,
	},
	{
		Name: TableMedia,
		Columns: []Column{
			intCol("objectid"),
			intCol("imagecount"),
			intCol("mediacount"),
			intCol("colorcount"),
			intCol("rank_value"),
			intCol("datebegin"),
			intCol("dateend"),
		},
		Key:        "objectid",
		PrimaryKey: true,
		References: TableMetadata,
	},
	{
		Name: TableColors,
		Columns: []Column{
			intCol("objectid"),
			textCol("color"),
			textCol("spectrum"),
			textCol("hue"),
			{Name: "percent", MySQLType: "DOUBLE", SQLiteType: "REAL"},
			textCol("css3"),
		},
		Key:        "objectid",
		References: TableMetadata,
	},
}

// Tables returns the destination table descriptors in load order.
func Tables() []Table {
	return slices.Clone(tables)
}

// LookupTable returns the descriptor for name.
func LookupTable(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// createSQL renders the idempotent DDL of the table.
func (t Table) createSQL(d Dialect) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.Name)
	b.WriteString(" (\n")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.sqlType(d))
		if c.Name == t.Key && t.PrimaryKey {
			b.WriteString(" NOT NULL")
		}
	}
	if t.PrimaryKey {
		b.WriteString(",\n  PRIMARY KEY (")
		b.WriteString(t.Key)
		b.WriteString(")")
	}
	if t.References != "" {
		ref, _ := LookupTable(t.References)
		b.WriteString(",\n  FOREIGN KEY (")
		b.WriteString(t.Key)
		b.WriteString(") REFERENCES ")
		b.WriteString(ref.Name)
		b.WriteString("(")
		b.WriteString(ref.Key)
		b.WriteString(")")
	}
	b.WriteString("\n)")
	if d == DialectMySQL {
		b.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	return b.String()
}
