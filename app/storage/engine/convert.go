package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Converter dumps sqlite tables as a postgres script, used to move records from sqlite to postgres
type Converter struct {
	db     *SQL
	tables []string
}

// NewConverter creates a new converter for the given sqlite engine and list of tables
func NewConverter(db *SQL, tables ...string) *Converter {
	return &Converter{db: db, tables: tables}
}

// SqliteToPostgres writes schema, data (as COPY blocks) and indices of all tables to w.
// Tables missing in the source database are skipped.
func (c *Converter) SqliteToPostgres(ctx context.Context, w io.Writer) error {
	if c.db.dbType != Sqlite {
		return fmt.Errorf("source database must be sqlite, got %q", c.db.dbType)
	}

	// read everything in one transaction for a consistent snapshot
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	header := fmt.Sprintf("-- sqlite to postgres export\n-- generated: %s\n-- gid: %s\n\nBEGIN;\n\n",
		time.Now().Format(time.RFC3339), c.db.gid)
	if _, err = io.WriteString(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, table := range c.tables {
		var count int
		q := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
		if err = tx.GetContext(ctx, &count, q, table); err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", table, err)
		}
		if count == 0 {
			continue
		}
		if err = c.convertTable(ctx, tx, w, table); err != nil {
			return err
		}
	}

	if _, err = io.WriteString(w, "COMMIT;\n"); err != nil {
		return fmt.Errorf("failed to write commit: %w", err)
	}
	return nil
}

func (c *Converter) convertTable(ctx context.Context, tx *sqlx.Tx, w io.Writer, table string) error {
	var createStmt string
	if err := tx.GetContext(ctx, &createStmt, "SELECT sql FROM sqlite_master WHERE type='table' AND name=?", table); err != nil {
		return fmt.Errorf("failed to get schema for table %s: %w", table, err)
	}
	if _, err := fmt.Fprintf(w, "%s;\n\n", c.convertSchema(createStmt)); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	var columns []string
	if err := tx.SelectContext(ctx, &columns, "SELECT name FROM PRAGMA_TABLE_INFO(?)", table); err != nil {
		return fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	var boolColumns []string
	if err := tx.SelectContext(ctx, &boolColumns, "SELECT name FROM PRAGMA_TABLE_INFO(?) WHERE type = 'BOOLEAN'", table); err != nil {
		return fmt.Errorf("failed to get boolean columns for table %s: %w", table, err)
	}

	if err := c.exportData(ctx, tx, w, table, columns, boolColumns); err != nil {
		return err
	}

	var indices []string
	q := "SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name=? AND sql IS NOT NULL"
	if err := tx.SelectContext(ctx, &indices, q, table); err != nil {
		return fmt.Errorf("failed to get indices for table %s: %w", table, err)
	}
	for _, idx := range indices {
		if _, err := fmt.Fprintf(w, "%s;\n", idx); err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
	}

	// sequence must follow imported ids, otherwise the next insert collides
	seq := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s;\n\n", table, table)
	if _, err := io.WriteString(w, seq); err != nil {
		return fmt.Errorf("failed to write sequence reset: %w", err)
	}
	return nil
}

// convertSchema converts sqlite CREATE TABLE statement to postgres syntax
func (c *Converter) convertSchema(stmt string) string {
	r := strings.NewReplacer(
		"INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY",
		"DATETIME", "TIMESTAMP",
		"BLOB", "BYTEA",
		"BOOLEAN NOT NULL DEFAULT 0", "BOOLEAN NOT NULL DEFAULT false",
		"BOOLEAN NOT NULL DEFAULT 1", "BOOLEAN NOT NULL DEFAULT true",
		"BOOLEAN DEFAULT 0", "BOOLEAN DEFAULT false",
		"BOOLEAN DEFAULT 1", "BOOLEAN DEFAULT true",
	)
	return r.Replace(stmt)
}

// exportData writes table rows in postgres COPY format
func (c *Converter) exportData(ctx context.Context, tx *sqlx.Tx, w io.Writer, table string, columns, boolColumns []string) error {
	var count int
	if err := tx.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil { //nolint:gosec // table name is not user input
		return fmt.Errorf("failed to get row count: %w", err)
	}
	if count == 0 {
		return nil
	}

	isBool := make(map[string]bool, len(boolColumns))
	for _, col := range boolColumns {
		isBool[col] = true
	}

	if _, err := fmt.Fprintf(w, "COPY %s (%s) FROM stdin;\n", table, strings.Join(columns, ", ")); err != nil {
		return fmt.Errorf("failed to write COPY header: %w", err)
	}

	rows, err := tx.QueryxContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)) //nolint:gosec // not user input
	if err != nil {
		return fmt.Errorf("failed to query data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		values := make([]string, 0, len(columns))
		for _, col := range columns {
			val := row[col]
			if v, ok := val.(int64); ok && isBool[col] {
				val = v != 0
			}
			values = append(values, formatCopyValue(val))
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(values, "\t")); err != nil {
			return fmt.Errorf("failed to write data row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	if _, err := io.WriteString(w, "\\.\n\n"); err != nil {
		return fmt.Errorf("failed to write COPY end: %w", err)
	}
	return nil
}

// formatCopyValue formats a value for postgres COPY text format
func formatCopyValue(value any) string {
	escape := strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")
	switch v := value.(type) {
	case nil:
		return "\\N"
	case []byte:
		return escape.Replace(string(v))
	case string:
		return escape.Replace(v)
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05")
	case bool:
		if v {
			return "t"
		}
		return "f"
	default:
		return fmt.Sprintf("%v", v)
	}
}
