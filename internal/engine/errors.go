package engine

import "fmt"

// SchemaError reports a source whose column layout violates the format
// contract: the identifier column must be the first column of its level.
type SchemaError struct {
	Source string
	Level  int
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q must be the first column at level %d", e.Source, e.Column, e.Level)
}

// MissingColumnError reports a selection that needs a column the source does
// not carry, e.g. type selection against a layout without a type column.
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: no %q column", e.Source, e.Column)
}

// NonUniqueIndexError reports an indexed lookup that returned more than one
// match. The indexed columns are unique by format contract, so duplicates mean
// the source data is corrupt; the run stops rather than picking a match.
type NonUniqueIndexError struct {
	Key    int
	Column string
	Source string
}

func (e *NonUniqueIndexError) Error() string {
	return fmt.Sprintf("%s %d is not a unique index: duplicate %s found in %s",
		e.Column, e.Key, e.Column, e.Source)
}

// ConfigError reports an invalid option combination. It is raised by the
// command layer before the engine runs; the engine itself assumes a valid,
// single-mode selection.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }
