package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.csv")

	err := WriteCSV(path, WriteOptions{
		Headers: []string{"A", "B"},
		Records: [][]string{{"1", "2"}},
	})
	require.NoError(t, err)

	headers, records, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, headers)
	assert.Equal(t, [][]string{{"1", "2"}}, records)
}

func TestWriteCSVTruncatesWithoutAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteCSV(path, WriteOptions{
		Headers: []string{"A"},
		Records: [][]string{{"old"}},
	}))
	require.NoError(t, WriteCSV(path, WriteOptions{
		Headers: []string{"A"},
		Records: [][]string{{"new"}},
	}))

	_, records, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"new"}}, records)
}

func TestAppendRowWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessment.csv")
	headers := []string{"Project", "MAE"}

	require.NoError(t, AppendRow(path, headers, []string{"guava", "12.5"}))
	require.NoError(t, AppendRow(path, headers, []string{"commons-io", "3.25"}))
	require.NoError(t, AppendRow(path, headers, []string{"spring-core", "7"}))

	gotHeaders, records, err := ReadAll(path)
	require.NoError(t, err)

	assert.Equal(t, headers, gotHeaders)
	require.Len(t, records, 3)
	assert.Equal(t, "guava", records[0][0])
	assert.Equal(t, "spring-core", records[2][0])
}

func TestAppendRowPreservesEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessment.csv")
	headers := []string{"Project", "Penalty", "MAE"}

	require.NoError(t, AppendRow(path, headers, []string{"guava", "", "12.5"}))

	_, records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0][1])
}

func TestFileExistsOnUnstatablePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assessment.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	// Statting through a regular file fails with ENOTDIR, not not-exist;
	// that must not be mistaken for an existing table.
	child := filepath.Join(path, "assessment.csv")
	assert.False(t, fileExists(child))

	err := AppendRow(child, []string{"Project"}, []string{"guava"})
	assert.Error(t, err)
}

func TestReadAllEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	headers, records, err := ReadAll(path)
	require.NoError(t, err)
	assert.Nil(t, headers)
	assert.Nil(t, records)
}

func TestReadAllMissingFile(t *testing.T) {
	_, _, err := ReadAll(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
