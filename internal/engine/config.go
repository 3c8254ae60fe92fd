package engine

// Column names fixed by the layout format contract.
const (
	GroupIDColumn = "group_id"
	WellIDColumn  = "well_id"
	TypeColumn    = "type"
	XColumn       = "x"
	YColumn       = "y"
)

// Level identifies a nesting level of the layout file.
type Level int

const (
	LevelGroup Level = 0
	LevelBlock Level = 1
	LevelWell  Level = 2
)

// IDColumn returns the identifier column at this level, or "" for the block
// level, which has none.
func (l Level) IDColumn() string {
	switch l {
	case LevelGroup:
		return GroupIDColumn
	case LevelWell:
		return WellIDColumn
	}
	return ""
}

// Selection is the validated, single-mode selection configuration. It is a
// sealed variant: exactly one of SelectAll, IDSelection or TypeSelection, so
// mixed modes are unrepresentable once the command layer has validated the
// options.
type Selection interface {
	selection()
}

// SelectAll dumps every group in stored order.
type SelectAll struct{}

// IDSelection dumps the records matching an ordered, deduplicated id list via
// indexed lookup at the given level (group or well).
type IDSelection struct {
	Level Level
	IDs   []int
}

// TypeSelection dumps the groups whose type path contains the requested
// types: all of them by default, any of them when Union is set.
type TypeSelection struct {
	Types []string
	Union bool
}

func (SelectAll) selection()     {}
func (IDSelection) selection()   {}
func (TypeSelection) selection() {}
