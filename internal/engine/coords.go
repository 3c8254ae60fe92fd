package engine

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/assaykit/layoutdump/internal/source"
)

// Coord is a resolved well position. Defined is false when the well is absent
// from the grid; such wells render as blank x and y fields.
type Coord struct {
	X       int
	Y       int
	Defined bool
}

// CoordResolver maps a well id to its grid position. Exactly one
// implementation is chosen per run, before any row is emitted.
type CoordResolver interface {
	Resolve(wellID int) (Coord, error)
}

// NewCoordResolver probes the grid's metadata and picks a strategy: a closed
// arithmetic mapping when the grid declares a sequential row-major layout,
// otherwise an indexed lookup on the well_id column.
func NewCoordResolver(grid source.Source, log *zap.Logger) (CoordResolver, error) {
	if rows, cols, ok := sequentialLayout(grid.Meta()); ok {
		log.Debug("grid layout is sequential, resolving coordinates arithmetically",
			zap.Int("rows", rows), zap.Int("cols", cols))
		return &arithmeticResolver{rows: rows, cols: cols}, nil
	}

	gridCols := grid.Columns(0)
	if len(gridCols) == 0 || gridCols[0] != WellIDColumn {
		return nil, &SchemaError{Source: grid.Name(), Level: 0, Column: WellIDColumn}
	}
	xCol, yCol := -1, -1
	for i, name := range gridCols {
		switch name {
		case XColumn:
			xCol = i
		case YColumn:
			yCol = i
		}
	}
	if xCol < 0 {
		return nil, &MissingColumnError{Source: grid.Name(), Column: XColumn}
	}
	if yCol < 0 {
		return nil, &MissingColumnError{Source: grid.Name(), Column: YColumn}
	}
	log.Debug("grid layout is irregular, resolving coordinates by index")
	return &indexedResolver{grid: grid, xCol: xCol, yCol: yCol}, nil
}

// sequentialLayout reports whether the grid metadata declares a regular
// layout: sequential=1, order=row_major, and positive rows and cols. Well ids
// then run 1..rows*cols, left to right, top to bottom.
func sequentialLayout(meta []source.MetaEntry) (rows, cols int, ok bool) {
	m := make(map[string]string, len(meta))
	for _, e := range meta {
		m[e.Key] = e.Value
	}
	if m["sequential"] != "1" || m["order"] != "row_major" {
		return 0, 0, false
	}
	rows, err := strconv.Atoi(m["rows"])
	if err != nil || rows <= 0 {
		return 0, 0, false
	}
	cols, err = strconv.Atoi(m["cols"])
	if err != nil || cols <= 0 {
		return 0, 0, false
	}
	return rows, cols, true
}

type arithmeticResolver struct {
	rows int
	cols int
}

func (r *arithmeticResolver) Resolve(wellID int) (Coord, error) {
	if wellID < 1 || wellID > r.rows*r.cols {
		return Coord{}, nil
	}
	return Coord{
		X:       (wellID - 1) % r.cols,
		Y:       (wellID - 1) / r.cols,
		Defined: true,
	}, nil
}

type indexedResolver struct {
	grid source.Source
	xCol int
	yCol int
}

func (r *indexedResolver) Resolve(wellID int) (Coord, error) {
	n, err := r.grid.Lookup(0, WellIDColumn, wellID)
	if err != nil {
		return Coord{}, err
	}
	switch {
	case n == 0:
		return Coord{}, nil
	case n > 1:
		return Coord{}, &NonUniqueIndexError{Key: wellID, Column: WellIDColumn, Source: r.grid.Name()}
	}
	x, err := strconv.Atoi(r.grid.Field(0, r.xCol))
	if err != nil {
		return Coord{}, fmt.Errorf("%s: bad x for %s %d: %w", r.grid.Name(), WellIDColumn, wellID, err)
	}
	y, err := strconv.Atoi(r.grid.Field(0, r.yCol))
	if err != nil {
		return Coord{}, fmt.Errorf("%s: bad y for %s %d: %w", r.grid.Name(), WellIDColumn, wellID, err)
	}
	return Coord{X: x, Y: y, Defined: true}, nil
}
