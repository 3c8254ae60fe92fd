package engine

import (
	"github.com/assaykit/layoutdump/internal/source"
)

// Catalog is the column-binding contract between a layout source and the
// output: it validates the identifier-first rule at each level, records the
// output header, and locates the optional type column. It is immutable after
// construction.
type Catalog struct {
	header     []string
	groupCols  int
	blockCols  int
	wellCols   int
	typeCol    int // level-0 column index of the type column, -1 when absent
	groupsOnly bool
	withCoords bool
}

// BuildCatalog derives the output schema from the source's. groupsOnly
// restricts the output to level-0 columns; withCoords appends the injected
// x and y columns fed by the coordinate resolver.
func BuildCatalog(src source.Source, groupsOnly, withCoords bool) (*Catalog, error) {
	groupCols := src.Columns(0)
	if len(groupCols) == 0 || groupCols[0] != GroupIDColumn {
		return nil, &SchemaError{Source: src.Name(), Level: 0, Column: GroupIDColumn}
	}

	c := &Catalog{
		groupCols:  len(groupCols),
		typeCol:    -1,
		groupsOnly: groupsOnly,
		withCoords: withCoords && !groupsOnly,
	}
	c.header = append(c.header, groupCols...)
	for i, name := range groupCols {
		if name == TypeColumn {
			c.typeCol = i
			break
		}
	}

	if groupsOnly {
		return c, nil
	}

	if src.Levels() < 3 {
		return nil, &SchemaError{Source: src.Name(), Level: 2, Column: WellIDColumn}
	}
	blockCols := src.Columns(1)
	wellCols := src.Columns(2)
	if len(wellCols) == 0 || wellCols[0] != WellIDColumn {
		return nil, &SchemaError{Source: src.Name(), Level: 2, Column: WellIDColumn}
	}
	c.blockCols = len(blockCols)
	c.wellCols = len(wellCols)
	c.header = append(c.header, blockCols...)
	c.header = append(c.header, wellCols...)
	if c.withCoords {
		c.header = append(c.header, XColumn, YColumn)
	}
	return c, nil
}

// Header returns the output column names in emission order.
func (c *Catalog) Header() []string { return c.header }

// TypeCol returns the level-0 column index of the type column, and whether
// the source has one.
func (c *Catalog) TypeCol() (int, bool) { return c.typeCol, c.typeCol >= 0 }
