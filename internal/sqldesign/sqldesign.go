package sqldesign

import (
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/assaykit/layoutdump/internal/source"
)

// Level tables of a layout database, outermost first. Each table's declared
// column order is its schema order; blocks and wells link to their parent
// through the group_rowid and block_rowid columns, which are not part of the
// schema proper.
var levelTables = [3]string{"groups", "blocks", "wells"}

var linkColumns = map[string]bool{
	"group_rowid": true,
	"block_rowid": true,
}

// DB is a layout source backed by a SQLite database, implementing the same
// cursor contract as the tab-delimited backend. Iteration runs one query per
// open level; indexed lookups go straight to SQL equality queries, so no
// in-memory index is built.
type DB struct {
	path string
	db   *sql.DB
	meta []source.MetaEntry
	cols [3][]string

	cursors [3]*sql.Rows
	done    [3]bool
	rowids  [3]int64
	rows    [3][]string
}

// Open opens the database and loads its metadata and per-level schemas.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	d := &DB{path: path, db: db}
	for lvl, table := range levelTables {
		cols, err := tableColumns(db, table)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		d.cols[lvl] = cols
	}
	if err := d.loadMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func tableColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT * FROM %q LIMIT 0`, table))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	all, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, c := range all {
		if !linkColumns[c] {
			cols = append(cols, c)
		}
	}
	return cols, rows.Err()
}

// loadMeta reads the optional meta table; a database without one simply has
// no metadata.
func (d *DB) loadMeta() error {
	rows, err := d.db.Query(`SELECT key, value FROM meta ORDER BY rowid`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil
		}
		return fmt.Errorf("%s: read meta: %w", d.path, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e source.MetaEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return fmt.Errorf("%s: read meta: %w", d.path, err)
		}
		d.meta = append(d.meta, e)
	}
	return rows.Err()
}

func (d *DB) Name() string { return d.path }

func (d *DB) Meta() []source.MetaEntry { return d.meta }

func (d *DB) Levels() int { return 3 }

func (d *DB) Columns(level int) []string {
	if level < 0 || level >= 3 {
		return nil
	}
	return d.cols[level]
}

func (d *DB) selectList(level int) string {
	quoted := make([]string, 0, len(d.cols[level])+1)
	quoted = append(quoted, "rowid")
	for _, c := range d.cols[level] {
		quoted = append(quoted, strconv.Quote(c))
	}
	return strings.Join(quoted, ", ")
}

// Next advances the cursor at the given level. Opening a level-0 cursor spans
// the whole groups table; lower levels scope to the current parent's rowid.
func (d *DB) Next(level int) (bool, error) {
	if level < 0 || level >= 3 {
		return false, fmt.Errorf("%s: no level %d", d.path, level)
	}
	if d.done[level] {
		return false, nil
	}
	if d.cursors[level] == nil {
		if err := d.openCursor(level); err != nil {
			return false, err
		}
	}
	rows := d.cursors[level]
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, fmt.Errorf("%s: iterate %s: %w", d.path, levelTables[level], err)
		}
		d.closeCursor(level)
		// Stay exhausted until the parent record advances.
		d.done[level] = true
		return false, nil
	}
	if err := d.scanCurrent(level, rows); err != nil {
		return false, err
	}
	// Entering a new record invalidates any open child cursors.
	for l := level + 1; l < 3; l++ {
		d.closeCursor(l)
		d.done[l] = false
		d.rows[l] = nil
	}
	return true, nil
}

func (d *DB) openCursor(level int) error {
	var (
		rows *sql.Rows
		err  error
	)
	switch level {
	case 0:
		rows, err = d.db.Query(fmt.Sprintf(
			`SELECT %s FROM "groups" ORDER BY rowid`, d.selectList(0)))
	case 1:
		rows, err = d.db.Query(fmt.Sprintf(
			`SELECT %s FROM "blocks" WHERE group_rowid = ? ORDER BY rowid`, d.selectList(1)),
			d.rowids[0])
	case 2:
		rows, err = d.db.Query(fmt.Sprintf(
			`SELECT %s FROM "wells" WHERE block_rowid = ? ORDER BY rowid`, d.selectList(2)),
			d.rowids[1])
	}
	if err != nil {
		return fmt.Errorf("%s: query %s: %w", d.path, levelTables[level], err)
	}
	d.cursors[level] = rows
	return nil
}

func (d *DB) closeCursor(level int) {
	if d.cursors[level] != nil {
		_ = d.cursors[level].Close()
		d.cursors[level] = nil
	}
}

func (d *DB) scanCurrent(level int, rows *sql.Rows) error {
	vals := make([]any, len(d.cols[level])+1)
	var rowid int64
	vals[0] = &rowid
	cells := make([]any, len(d.cols[level]))
	for i := range cells {
		vals[i+1] = &cells[i]
	}
	if err := rows.Scan(vals...); err != nil {
		return fmt.Errorf("%s: scan %s: %w", d.path, levelTables[level], err)
	}
	d.rowids[level] = rowid
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = renderValue(c)
	}
	d.rows[level] = row
	return nil
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}

func (d *DB) Field(level, col int) string {
	if level < 0 || level >= 3 {
		return ""
	}
	row := d.rows[level]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Lookup resolves an id through an equality query, counting up to two matches
// to honor the uniqueness contract. On a unique match the matching record and
// its ancestors are loaded and the child cursors scoped to it.
func (d *DB) Lookup(level int, column string, id int) (int, error) {
	if level < 0 || level >= 3 {
		return 0, fmt.Errorf("%s: no level %d", d.path, level)
	}
	if !slices.Contains(d.cols[level], column) {
		return 0, fmt.Errorf("%s: no column %q at level %d", d.path, column, level)
	}
	table := levelTables[level]

	var n int
	err := d.db.QueryRow(fmt.Sprintf(
		`SELECT COUNT(*) FROM (SELECT 1 FROM %q WHERE %q = ? LIMIT 2)`, table, column),
		id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: lookup %s: %w", d.path, table, err)
	}
	if n != 1 {
		return n, nil
	}

	for l := 0; l < 3; l++ {
		d.closeCursor(l)
		d.done[l] = false
	}
	if err := d.loadUnique(level, column, id); err != nil {
		return 0, err
	}
	return 1, nil
}

// loadUnique loads the unique matching record at level, then walks parent
// rowids upward loading each ancestor.
func (d *DB) loadUnique(level int, column string, id int) error {
	parentLink := [3]string{"", "group_rowid", "block_rowid"}

	sel := d.selectList(level)
	var parent any
	query := fmt.Sprintf(`SELECT %s%s FROM %q WHERE %q = ?`,
		sel, parentSelect(level), levelTables[level], column)
	row := d.db.QueryRow(query, id)
	if err := d.scanRow(level, row, &parent); err != nil {
		return err
	}

	for l := level; l > 0; l-- {
		parentRowid, ok := parent.(int64)
		if !ok {
			return fmt.Errorf("%s: %s row %d has no %s", d.path, levelTables[l], d.rowids[l], parentLink[l])
		}
		query := fmt.Sprintf(`SELECT %s%s FROM %q WHERE rowid = ?`,
			d.selectList(l-1), parentSelect(l-1), levelTables[l-1])
		row := d.db.QueryRow(query, parentRowid)
		if err := d.scanRow(l-1, row, &parent); err != nil {
			return err
		}
	}
	return nil
}

func parentSelect(level int) string {
	switch level {
	case 1:
		return `, "group_rowid"`
	case 2:
		return `, "block_rowid"`
	}
	return ""
}

// scanRow scans one record plus, below level 0, its parent rowid.
func (d *DB) scanRow(level int, row *sql.Row, parent *any) error {
	n := len(d.cols[level]) + 1
	if level > 0 {
		n++
	}
	vals := make([]any, n)
	var rowid int64
	vals[0] = &rowid
	cells := make([]any, len(d.cols[level]))
	for i := range cells {
		vals[i+1] = &cells[i]
	}
	var parentID any
	if level > 0 {
		vals[n-1] = &parentID
	}
	if err := row.Scan(vals...); err != nil {
		return fmt.Errorf("%s: load %s: %w", d.path, levelTables[level], err)
	}
	d.rowids[level] = rowid
	r := make([]string, len(cells))
	for i, c := range cells {
		r[i] = renderValue(c)
	}
	d.rows[level] = r
	if level > 0 {
		*parent = parentID
	} else {
		*parent = nil
	}
	return nil
}

func (d *DB) Close() error {
	for l := 0; l < 3; l++ {
		d.closeCursor(l)
	}
	return d.db.Close()
}

var _ source.Source = (*DB)(nil)
