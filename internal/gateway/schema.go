package gateway

import (
	"context"
	"fmt"
)

// TableInfo describes one domain table for UI display.
type TableInfo struct {
	TableName string       `json:"tableName"`
	Columns   []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column of a domain table.
type ColumnInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
	NotNull      bool   `json:"notNull"`
}

// SchemaInfo introspects the store's catalog and returns every domain
// table with its columns in store order. SQLite internals and the
// migrations ledger are excluded; table order is deterministic (by name).
func (g *Gateway) SchemaInfo(ctx context.Context) ([]TableInfo, error) {
	rs, err := g.store.Query(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'migrations'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]TableInfo, 0, rs.RowCount())
	for _, row := range rs.Rows {
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("table name has unexpected type %T", row[0])
		}

		columns, err := g.tableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{TableName: name, Columns: columns})
	}

	return tables, nil
}

// tableColumns reads PRAGMA table_info for one table.
// Row shape: cid, name, type, notnull, dflt_value, pk.
func (g *Gateway) tableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rs, err := g.store.Query(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}

	columns := make([]ColumnInfo, 0, rs.RowCount())
	for _, row := range rs.Rows {
		columns = append(columns, ColumnInfo{
			Name:         str(row[1]),
			Type:         str(row[2]),
			IsPrimaryKey: intval(row[5]) > 0,
			NotNull:      intval(row[3]) > 0,
		})
	}
	return columns, nil
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intval(v any) int64 {
	if n, ok := v.(int64); ok {
		return n
	}
	return 0
}
