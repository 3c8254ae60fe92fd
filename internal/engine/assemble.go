package engine

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/assaykit/layoutdump/internal/source"
)

// assembler streams denormalized rows for the current cursor position. It
// holds no record state of its own: fields are read straight off the source,
// so memory stays proportional to the schema width.
type assembler struct {
	out    *bufio.Writer
	layout source.Source
	cat    *Catalog
	coords CoordResolver // nil unless the coordinate join is enabled
}

// writeGroup emits the output for the group the cursor is on: one line in
// groups-only mode, otherwise one line per well beneath it.
func (a *assembler) writeGroup() error {
	if a.cat.groupsOnly {
		for i := 0; i < a.cat.groupCols; i++ {
			if i > 0 {
				if err := a.out.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := a.out.WriteString(a.layout.Field(0, i)); err != nil {
				return err
			}
		}
		return a.out.WriteByte('\n')
	}

	for {
		ok, err := a.layout.Next(1)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for {
			ok, err := a.layout.Next(2)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if err := a.writeWellRow(); err != nil {
				return err
			}
		}
	}
}

// writeWellRow emits one flattened line for the well the cursor is on: group
// fields, block fields, well fields, then the joined coordinates if enabled.
func (a *assembler) writeWellRow() error {
	first := true
	writeField := func(v string) error {
		if !first {
			if err := a.out.WriteByte('\t'); err != nil {
				return err
			}
		}
		first = false
		_, err := a.out.WriteString(v)
		return err
	}

	for i := 0; i < a.cat.groupCols; i++ {
		if err := writeField(a.layout.Field(0, i)); err != nil {
			return err
		}
	}
	for i := 0; i < a.cat.blockCols; i++ {
		if err := writeField(a.layout.Field(1, i)); err != nil {
			return err
		}
	}
	for i := 0; i < a.cat.wellCols; i++ {
		if err := writeField(a.layout.Field(2, i)); err != nil {
			return err
		}
	}

	if a.coords != nil {
		raw := a.layout.Field(2, 0)
		wellID, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %s %q is not an integer: %w", a.layout.Name(), WellIDColumn, raw, err)
		}
		c, err := a.coords.Resolve(wellID)
		if err != nil {
			return err
		}
		x, y := "", ""
		if c.Defined {
			x = strconv.Itoa(c.X)
			y = strconv.Itoa(c.Y)
		}
		if err := writeField(x); err != nil {
			return err
		}
		if err := writeField(y); err != nil {
			return err
		}
	}
	return a.out.WriteByte('\n')
}
