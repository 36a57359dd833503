package sheet

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS cells (
	sheet   TEXT    NOT NULL,
	row_idx INTEGER NOT NULL,
	col_idx INTEGER NOT NULL,
	color   TEXT    NOT NULL,
	PRIMARY KEY (sheet, row_idx, col_idx)
);`

// SQLiteCells stores the fill colors of one sheet in SQLite
type SQLiteCells struct {
	db    *sql.DB
	sheet string
}

// OpenSQLite opens (and creates if missing) the database at dsn and prepares the schema
func OpenSQLite(dsn, sheetName string) (*SQLiteCells, error) {
	dir := filepath.Dir(strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:"))
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "[OpenSQLite] mkdir %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", withPragmas(dsn))
	if err != nil {
		return nil, errors.Wrapf(err, "[OpenSQLite] open %s", dsn)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[OpenSQLite] create schema")
	}

	log.Debug().Str("dsn", dsn).Str("sheet", sheetName).Msg("sheet database opened")
	return &SQLiteCells{db: db, sheet: sheetName}, nil
}

// withPragmas appends the busy timeout and WAL parameters, keeping any query the dsn already has
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000&_journal_mode=WAL"
}

// Close releases the database handle
func (s *SQLiteCells) Close() error {
	return s.db.Close()
}

// Colors implements Cells
func (s *SQLiteCells) Colors(ctx context.Context, r Range) ([][]string, error) {
	out := make([][]string, max(0, r.Rows))
	for y := range out {
		out[y] = make([]string, max(0, r.Cols))
	}
	if r.IsEmpty() {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_idx, col_idx, color FROM cells
		WHERE sheet = ? AND row_idx >= ? AND row_idx < ? AND col_idx >= ? AND col_idx < ?`,
		s.sheet, r.Row, r.Row+r.Rows, r.Col, r.Col+r.Cols,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Colors] query cells")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row, col int
			color    string
		)
		if err := rows.Scan(&row, &col, &color); err != nil {
			return nil, errors.Wrap(err, "[Colors] scan cell")
		}
		out[row-r.Row][col-r.Col] = color
	}
	return out, errors.Wrap(rows.Err(), "[Colors] iterate cells")
}

// SetColors implements Cells. All colors are written in one transaction.
func (s *SQLiteCells) SetColors(ctx context.Context, colors []CellColor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[SetColors] begin")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (sheet, row_idx, col_idx, color) VALUES (?, ?, ?, ?)
		ON CONFLICT (sheet, row_idx, col_idx) DO UPDATE SET color = excluded.color`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "[SetColors] prepare")
	}
	defer stmt.Close()

	for _, c := range colors {
		if _, err := stmt.ExecContext(ctx, s.sheet, c.Row, c.Col, c.Color); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "[SetColors] cell (%d,%d)", c.Row, c.Col)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[SetColors] commit")
	}
	return nil
}

// IsBlank reports whether no cell inside r has a stored color
func (s *SQLiteCells) IsBlank(ctx context.Context, r Range) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM cells
		WHERE sheet = ? AND row_idx >= ? AND row_idx < ? AND col_idx >= ? AND col_idx < ?`,
		s.sheet, r.Row, r.Row+r.Rows, r.Col, r.Col+r.Cols,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "[IsBlank] count cells")
	}
	return n == 0, nil
}
