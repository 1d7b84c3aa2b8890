package robots

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"mt5-wrapper/internal/types"
)

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

func TestListCorrelatesBinaryWithSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "StrategyA.ex5", []byte{0x01, 0x02})
	writeFile(t, dir, "StrategyA.mq5", []byte("// EA\ninput int MagicNumber = 12345;\n"))

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []types.Robot{{Name: "StrategyA", MagicNumber: 12345}}, got)
}

func TestListExcludesBinaryWithoutSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Orphan.ex5", []byte{0x01})

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListExcludesSourceWithoutDeclaration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "NoMagic.ex5", []byte{0x01})
	writeFile(t, dir, "NoMagic.mq5", []byte("input double Lots = 0.1;\n"))

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListDecodesUTF16Source(t *testing.T) {
	t.Parallel()

	// MetaEditor's default save format: UTF-16LE with BOM.
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte("input int MagicNumber = 67890;\n"))
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "Wide.ex5", []byte{0x01})
	writeFile(t, dir, "Wide.mq5", encoded)

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, int64(67890), got[0].MagicNumber)
}

func TestListMatchesDeclarationCaseInsensitively(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Shouty.ex5", []byte{0x01})
	writeFile(t, dir, "Shouty.mq5", []byte("INPUT INT MAGICNUMBER = 42;\n"))

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].MagicNumber)
}

func TestListSortsByName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"Zulu", "Alpha", "Mike"} {
		writeFile(t, dir, name+".ex5", []byte{0x01})
		writeFile(t, dir, name+".mq5", []byte("input int MagicNumber = 7;\n"))
	}

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "Mike", got[1].Name)
	assert.Equal(t, "Zulu", got[2].Name)
}

func TestListIgnoresUnrelatedFilesAndDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", []byte("hello"))
	writeFile(t, dir, "Loose.mq5", []byte("input int MagicNumber = 1;\n"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Sub.ex5"), 0o755))

	got, err := NewRegistry(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListUnconfiguredDirectoryIsAnError(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry("").List(context.Background())
	assert.Error(t, err)
}

func TestListMissingDirectoryIsAnError(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	assert.Error(t, err)
}
