package tsv

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/assaykit/layoutdump/internal/source"
)

// Table reads the tab-delimited layout format: a metadata preamble of
// "#%key=value" lines, column headers, then data lines whose nesting level is
// the number of leading tabs. Multi-level files declare their headers through
// the #%header0..#%header2 meta keys; flat files use their first non-comment
// line as the level-0 header instead.
//
// The file is scanned once at Open to record per-line offsets and levels.
// Record fields are parsed on demand as the cursor moves, so memory stays
// proportional to the line count, not the file size.
type Table struct {
	path    string
	f       *os.File
	r       *bufio.Reader
	rOff    int64 // file offset of the reader's next byte
	meta    []source.MetaEntry
	headers [][]string
	lines   []lineInfo
	pos     int // index of the last consumed data line, -1 before the first
	rows    [][]string
	indexes map[indexKey]map[int][]int
}

type lineInfo struct {
	offset int64
	level  uint8
}

type indexKey struct {
	level  int
	column string
}

const maxLevels = 3

// Open reads the file's structure: metadata, headers and the line table.
func Open(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	t := &Table{
		path:    path,
		f:       f,
		pos:     -1,
		indexes: make(map[indexKey]map[int][]int),
	}
	if err := t.scan(); err != nil {
		_ = f.Close()
		return nil, err
	}

	t.rows = make([][]string, len(t.headers))
	t.r = bufio.NewReader(f)
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}
	t.rOff = 0
	return t, nil
}

// scan builds the metadata list, the header set and the line table.
func (t *Table) scan() error {
	var metaHeaders [maxLevels][]string
	hasMetaHeaders := false

	r := bufio.NewReader(t.f)
	var off int64
	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		lineOff := off
		off += int64(len(line))
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(line, "#%"):
			key, value, ok := strings.Cut(line[2:], "=")
			if !ok {
				return fmt.Errorf("%s: malformed meta line %q", t.path, line)
			}
			if lvl, isHeader := headerKeyLevel(key); isHeader {
				metaHeaders[lvl] = strings.Split(value, "\t")
				hasMetaHeaders = true
			} else {
				t.meta = append(t.meta, source.MetaEntry{Key: key, Value: value})
			}
		case strings.HasPrefix(line, "#"):
			// comment
		case strings.TrimSpace(line) == "":
			// blank
		default:
			if t.headers == nil {
				if hasMetaHeaders {
					for lvl := 0; lvl < maxLevels; lvl++ {
						if metaHeaders[lvl] == nil {
							break
						}
						t.headers = append(t.headers, metaHeaders[lvl])
					}
					if t.headers == nil {
						return fmt.Errorf("%s: #%%header1 present without #%%header0", t.path)
					}
				} else {
					// Flat file: this line is the header, not data.
					t.headers = [][]string{strings.Split(line, "\t")}
					continue
				}
			}
			level := leadingTabs(line)
			if level >= len(t.headers) {
				return fmt.Errorf("%s: data line at level %d but only %d header level(s) declared",
					t.path, level, len(t.headers))
			}
			t.lines = append(t.lines, lineInfo{offset: lineOff, level: uint8(level)})
		}
		if err != nil {
			break
		}
	}

	// A file with headers but no data lines is valid; a file with neither is not.
	if t.headers == nil {
		if hasMetaHeaders {
			for lvl := 0; lvl < maxLevels; lvl++ {
				if metaHeaders[lvl] == nil {
					break
				}
				t.headers = append(t.headers, metaHeaders[lvl])
			}
		}
		if t.headers == nil {
			return fmt.Errorf("%s: no column headers found", t.path)
		}
	}
	return nil
}

func headerKeyLevel(key string) (int, bool) {
	if !strings.HasPrefix(key, "header") {
		return 0, false
	}
	n, err := strconv.Atoi(key[len("header"):])
	if err != nil || n < 0 || n >= maxLevels {
		return 0, false
	}
	return n, true
}

func leadingTabs(line string) int {
	n := 0
	for n < len(line) && line[n] == '\t' {
		n++
	}
	return n
}

func (t *Table) Name() string { return t.path }

func (t *Table) Meta() []source.MetaEntry { return t.meta }

func (t *Table) Levels() int { return len(t.headers) }

func (t *Table) Columns(level int) []string {
	if level < 0 || level >= len(t.headers) {
		return nil
	}
	return t.headers[level]
}

// Next advances the cursor to the next data line at the given level. Deeper
// lines in between are consumed; a shallower line stops the advance without
// being consumed, so a later Next at its level picks it up.
func (t *Table) Next(level int) (bool, error) {
	if level < 0 || level >= len(t.headers) {
		return false, fmt.Errorf("%s: no level %d", t.path, level)
	}
	for i := t.pos + 1; i < len(t.lines); i++ {
		lv := int(t.lines[i].level)
		if lv < level {
			return false, nil
		}
		if lv > level {
			t.pos = i
			continue
		}
		row, err := t.rowAt(i)
		if err != nil {
			return false, err
		}
		t.pos = i
		t.rows[level] = row
		for l := level + 1; l < len(t.rows); l++ {
			t.rows[l] = nil
		}
		return true, nil
	}
	return false, nil
}

func (t *Table) Field(level, col int) string {
	if level < 0 || level >= len(t.rows) {
		return ""
	}
	row := t.rows[level]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Lookup performs an integer equality lookup on the given column, building the
// index on first use. On a unique match the cursor moves there and the
// enclosing records at shallower levels are reloaded.
func (t *Table) Lookup(level int, column string, id int) (int, error) {
	idx, err := t.index(level, column)
	if err != nil {
		return 0, err
	}
	matches := idx[id]
	if len(matches) != 1 {
		return len(matches), nil
	}

	lineIdx := matches[0]
	row, err := t.rowAt(lineIdx)
	if err != nil {
		return 0, err
	}
	t.pos = lineIdx
	t.rows[level] = row
	for l := level + 1; l < len(t.rows); l++ {
		t.rows[l] = nil
	}

	// Re-establish ancestor records by walking backwards to the nearest
	// enclosing line at each shallower level.
	want := level - 1
	for j := lineIdx - 1; j >= 0 && want >= 0; j-- {
		lv := int(t.lines[j].level)
		if lv > want {
			continue
		}
		for lv < want {
			t.rows[want] = nil
			want--
		}
		parent, err := t.rowAt(j)
		if err != nil {
			return 0, err
		}
		t.rows[want] = parent
		want--
	}
	for ; want >= 0; want-- {
		t.rows[want] = nil
	}
	return 1, nil
}

// index returns the lazily built id->line-index map for (level, column).
func (t *Table) index(level int, column string) (map[int][]int, error) {
	key := indexKey{level: level, column: column}
	if idx, ok := t.indexes[key]; ok {
		return idx, nil
	}
	if level < 0 || level >= len(t.headers) {
		return nil, fmt.Errorf("%s: no level %d", t.path, level)
	}
	col := -1
	for i, name := range t.headers[level] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: no column %q at level %d", t.path, column, level)
	}

	idx := make(map[int][]int)
	for i, li := range t.lines {
		if int(li.level) != level {
			continue
		}
		row, err := t.rowAt(i)
		if err != nil {
			return nil, err
		}
		if col >= len(row) {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			// Non-integer cells are simply not indexable.
			continue
		}
		idx[v] = append(idx[v], i)
	}
	t.indexes[key] = idx
	return idx, nil
}

// rowAt reads and parses the data line with the given index, repositioning the
// underlying reader only when the read is not sequential.
func (t *Table) rowAt(i int) ([]string, error) {
	li := t.lines[i]
	if li.offset != t.rOff {
		if _, err := t.f.Seek(li.offset, 0); err != nil {
			return nil, fmt.Errorf("seek %s: %w", t.path, err)
		}
		t.r.Reset(t.f)
		t.rOff = li.offset
	}
	line, err := t.r.ReadString('\n')
	if line == "" && err != nil {
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	t.rOff += int64(len(line))
	line = strings.TrimRight(line, "\r\n")

	level := int(li.level)
	fields := strings.Split(line[level:], "\t")
	want := len(t.headers[level])
	for len(fields) < want {
		fields = append(fields, "")
	}
	return fields[:want], nil
}

func (t *Table) Close() error {
	return t.f.Close()
}

var _ source.Source = (*Table)(nil)
