package idlist

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/assaykit/layoutdump/internal/tsv"
)

// ReadFiles reads the requested id column from each list file and returns the
// ids in first-occurrence order with duplicates dropped, across all files.
// List files are flat tab-delimited files whose header names the id column.
func ReadFiles(paths []string, column string) ([]int, error) {
	seen := roaring.New()
	var ids []int
	for _, path := range paths {
		if err := readFile(path, column, seen, &ids); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func readFile(path, column string, seen *roaring.Bitmap, ids *[]int) error {
	t, err := tsv.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	col := -1
	for i, name := range t.Columns(0) {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return fmt.Errorf("%s: no %q column", path, column)
	}

	for {
		ok, err := t.Next(0)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		raw := t.Field(0, col)
		id, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %s %q is not an integer", path, column, raw)
		}
		if id < 0 || id > math.MaxUint32 {
			return fmt.Errorf("%s: %s %d is out of range", path, column, id)
		}
		if seen.CheckedAdd(uint32(id)) {
			*ids = append(*ids, id)
		}
	}
}
