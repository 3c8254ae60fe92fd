package source

// MetaEntry is one key=value pair from a source's metadata preamble,
// in the order it appeared.
type MetaEntry struct {
	Key   string
	Value string
}

// Source abstracts over the tabular backends a dump runs against.
// It exposes a single logical cursor: Next(level) advances the cursor to the
// next record at that level, returning false when the enclosing record at the
// level above is exhausted. Lookup repositions the same cursor, so callers must
// not interleave indexed lookups with an in-flight full scan.
type Source interface {
	// Name identifies the source in diagnostics (normally the file path).
	Name() string

	// Meta returns the source's metadata entries in source order.
	Meta() []MetaEntry

	// Levels reports how many nesting levels the source carries (1 to 3).
	Levels() int

	// Columns returns the column names at the given level, in schema order.
	Columns(level int) []string

	// Next advances to the next record at the given level. It returns false
	// without an error when no further record exists under the current parent.
	Next(level int) (bool, error)

	// Field returns the current record's value at the given level and column
	// index. Valid only after a successful Next or Lookup at that level.
	Field(level, col int) string

	// Lookup performs an indexed equality lookup on an integer column and
	// returns the number of matches. On exactly one match the cursor is
	// positioned on it, with ancestor records re-established so that Field
	// and Next behave as if the cursor had walked there naturally. With zero
	// or multiple matches the cursor is left where it was.
	Lookup(level int, column string, id int) (int, error)

	Close() error
}
