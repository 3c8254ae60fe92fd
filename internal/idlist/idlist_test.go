package idlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFiles_DedupKeepsFirstOccurrenceOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeList(t, dir, "ids.txt", "group_id\n5\n5\n9\n42\n9\n")

	ids, err := ReadFiles([]string{path}, "group_id")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 9, 42}, ids)
}

func TestReadFiles_DedupSpansFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeList(t, dir, "a.txt", "well_id\n1\n2\n")
	b := writeList(t, dir, "b.txt", "well_id\n2\n3\n")

	ids, err := ReadFiles([]string{a, b}, "well_id")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestReadFiles_ExtraColumnsAllowed(t *testing.T) {
	dir := t.TempDir()
	path := writeList(t, dir, "ids.txt", "note\tgroup_id\nx\t7\ny\t8\n")

	ids, err := ReadFiles([]string{path}, "group_id")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, ids)
}

func TestReadFiles_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeList(t, dir, "ids.txt", "well_id\n1\n")

	_, err := ReadFiles([]string{path}, "group_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_id")
}

func TestReadFiles_NonIntegerID(t *testing.T) {
	dir := t.TempDir()
	path := writeList(t, dir, "ids.txt", "group_id\nseven\n")

	_, err := ReadFiles([]string{path}, "group_id")
	require.Error(t, err)
}

func TestReadFiles_MissingFile(t *testing.T) {
	_, err := ReadFiles([]string{filepath.Join(t.TempDir(), "absent.txt")}, "group_id")
	require.Error(t, err)
}

func TestReadFiles_Empty(t *testing.T) {
	ids, err := ReadFiles(nil, "group_id")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
