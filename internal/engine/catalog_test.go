package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/layoutdump/internal/source"
	"github.com/assaykit/layoutdump/internal/tsv"
)

func openFixture(t *testing.T, name, content string) source.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	tab, err := tsv.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tab.Close() })
	return tab
}

const catalogFixture = "#%header0=group_id\ttype\tname\n" +
	"#%header1=channel\n" +
	"#%header2=well_id\tlabel\n"

func TestBuildCatalog_FullHeader(t *testing.T) {
	src := openFixture(t, "plate.layout", catalogFixture)

	cat, err := BuildCatalog(src, false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"group_id", "type", "name", "channel", "well_id", "label"}, cat.Header())

	col, ok := cat.TypeCol()
	assert.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestBuildCatalog_InjectedCoordinates(t *testing.T) {
	src := openFixture(t, "plate.layout", catalogFixture)

	cat, err := BuildCatalog(src, false, true)
	require.NoError(t, err)
	header := cat.Header()
	assert.Equal(t, "x", header[len(header)-2])
	assert.Equal(t, "y", header[len(header)-1])
}

func TestBuildCatalog_GroupsOnlyHeaderIsPrefixOfFull(t *testing.T) {
	groupsOnly, err := BuildCatalog(openFixture(t, "a.layout", catalogFixture), true, false)
	require.NoError(t, err)
	full, err := BuildCatalog(openFixture(t, "b.layout", catalogFixture), false, false)
	require.NoError(t, err)

	require.LessOrEqual(t, len(groupsOnly.Header()), len(full.Header()))
	assert.Equal(t, groupsOnly.Header(), full.Header()[:len(groupsOnly.Header())])
}

func TestBuildCatalog_GroupIDMustBeFirst(t *testing.T) {
	src := openFixture(t, "bad.layout",
		"#%header0=type\tgroup_id\n#%header1=channel\n#%header2=well_id\n")

	_, err := BuildCatalog(src, false, false)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Level)
	assert.Equal(t, GroupIDColumn, se.Column)
}

func TestBuildCatalog_WellIDMustBeFirst(t *testing.T) {
	src := openFixture(t, "bad.layout",
		"#%header0=group_id\n#%header1=channel\n#%header2=label\twell_id\n")

	_, err := BuildCatalog(src, false, false)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Level)
}

func TestBuildCatalog_NoTypeColumn(t *testing.T) {
	src := openFixture(t, "typeless.layout",
		"#%header0=group_id\tname\n#%header1=channel\n#%header2=well_id\n")

	cat, err := BuildCatalog(src, false, false)
	require.NoError(t, err)
	_, ok := cat.TypeCol()
	assert.False(t, ok)
}
