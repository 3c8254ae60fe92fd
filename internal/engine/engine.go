package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assaykit/layoutdump/internal/source"
)

// Metadata keys propagated verbatim from the layout file's preamble into the
// output; everything else is dropped.
var propagatedMeta = map[string]bool{
	"plate_type":      true,
	"lib_set_name":    true,
	"lib_set_version": true,
}

// Options configures a single dump run. The selection has already been
// validated by the caller: exactly one mode, and well-id selection never
// combined with GroupsOnly.
type Options struct {
	Layout source.Source
	Grid   source.Source // optional; enables the coordinate join
	Out    io.Writer

	Selection  Selection
	GroupsOnly bool

	Version     string
	CommandLine string
	Log         *zap.Logger
}

// Run executes one dump: schema validation, strategy selection, then a single
// streaming pass writing the preamble, the header line and the data lines.
// Any error is fatal; nothing is retried and no partial recovery is attempted.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	sel := opts.Selection
	if sel == nil {
		sel = SelectAll{}
	}

	withCoords := opts.Grid != nil && !opts.GroupsOnly
	cat, err := BuildCatalog(opts.Layout, opts.GroupsOnly, withCoords)
	if err != nil {
		return err
	}
	if _, ok := sel.(TypeSelection); ok {
		if _, ok := cat.TypeCol(); !ok {
			return &MissingColumnError{Source: opts.Layout.Name(), Column: TypeColumn}
		}
	}

	var coords CoordResolver
	if withCoords {
		coords, err = NewCoordResolver(opts.Grid, log)
		if err != nil {
			return err
		}
	}

	execGUID := uuid.NewString()
	log.Info("starting dump",
		zap.String("exec_guid", execGUID),
		zap.String("layout", opts.Layout.Name()))

	out := bufio.NewWriter(opts.Out)
	if err := writePreamble(out, opts, cat, execGUID); err != nil {
		return err
	}
	// Rows emitted before a fatal lookup failure must still reach the
	// output; only the run itself is aborted.
	defer func() { _ = out.Flush() }()

	a := &assembler{out: out, layout: opts.Layout, cat: cat, coords: coords}
	switch s := sel.(type) {
	case SelectAll:
		log.Info("dumping entire layout file")
		if err := dumpAll(a); err != nil {
			return err
		}
	case IDSelection:
		log.Info("dumping by id list",
			zap.String("column", s.Level.IDColumn()),
			zap.Int("ids", len(s.IDs)))
		if err := dumpByIDs(a, s); err != nil {
			return err
		}
	case TypeSelection:
		log.Info("scanning layout for requested types",
			zap.Strings("types", s.Types),
			zap.Bool("union", s.Union))
		if err := dumpByTypes(a, s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown selection %T", sel)
	}
	return out.Flush()
}

func dumpAll(a *assembler) error {
	for {
		ok, err := a.layout.Next(0)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := a.writeGroup(); err != nil {
			return err
		}
	}
}

// dumpByIDs looks each requested id up in order. An absent id is skipped
// quietly; a duplicate id stops the run before any further id is attempted.
func dumpByIDs(a *assembler, sel IDSelection) error {
	column := sel.Level.IDColumn()
	for _, id := range sel.IDs {
		n, err := a.layout.Lookup(int(sel.Level), column, id)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if n > 1 {
			return &NonUniqueIndexError{Key: id, Column: column, Source: a.layout.Name()}
		}
		if sel.Level == LevelWell {
			err = a.writeWellRow()
		} else {
			err = a.writeGroup()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// dumpByTypes scans every group, splitting its type path and matching it
// against the requested types. Indexing is not applicable here: matching is
// set membership on path segments, not id equality.
func dumpByTypes(a *assembler, sel TypeSelection) error {
	typeCol, ok := a.cat.TypeCol()
	if !ok {
		return &MissingColumnError{Source: a.layout.Name(), Column: TypeColumn}
	}
	for {
		ok, err := a.layout.Next(0)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		path := SplitTypes(a.layout.Field(0, typeCol))
		if !matchesTypes(path, sel.Types, sel.Union) {
			continue
		}
		if err := a.writeGroup(); err != nil {
			return err
		}
	}
}

// writePreamble emits the #%key=value metadata block, the propagated layout
// metadata and the header line. The buffered writes share one sticky error,
// surfaced by the flush.
func writePreamble(out *bufio.Writer, opts Options, cat *Catalog, execGUID string) error {
	fmt.Fprintf(out, "#%%guid=%s\n", uuid.NewString())
	fmt.Fprintf(out, "#%%exec_guid=%s\n", execGUID)
	fmt.Fprintf(out, "#%%exec_version=%s\n", opts.Version)
	fmt.Fprintf(out, "#%%create_date=%s\n", time.Now().Format(time.ANSIC))
	fmt.Fprintf(out, "#%%cmd=%s\n", opts.CommandLine)
	for _, e := range opts.Layout.Meta() {
		if propagatedMeta[e.Key] {
			fmt.Fprintf(out, "#%%%s=%s\n", e.Key, e.Value)
		}
	}
	fmt.Fprintln(out, strings.Join(cat.Header(), "\t"))
	return out.Flush()
}
