package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	headers := []string{"a", "b"}
	records := [][]string{{"1", "x"}, {"2", "y"}}
	require.NoError(t, w.WriteSimpleCSV("out.csv", headers, records))

	got := readCSV(t, filepath.Join(dir, "out.csv"))
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, records[0], got[1])
	assert.Equal(t, records[1], got[2])
}

func TestWriteCSVCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV(filepath.Join("nested", "deep", "out.csv"), []string{"a"}, nil))
	_, err := os.Stat(filepath.Join(dir, "nested", "deep", "out.csv"))
	assert.NoError(t, err)
}

func TestWriteCSVAppend(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("out.csv", []string{"a"}, [][]string{{"1"}}))
	require.NoError(t, w.WriteCSV("out.csv", WriteOptions{
		Records: [][]string{{"2"}},
		Append:  true,
	}))

	got := readCSV(t, filepath.Join(dir, "out.csv"))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2"}, got[2])
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	stream, err := w.CreateStreamWriter("stream.csv", []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1", "x"}))
	require.NoError(t, stream.WriteRecord([]string{"2", "y"}))
	require.NoError(t, stream.Close())

	got := readCSV(t, filepath.Join(dir, "stream.csv"))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b"}, got[0])
	assert.Equal(t, []string{"2", "y"}, got[2])
}

func TestResolvePath(t *testing.T) {
	w := NewCSVWriter("/base")
	assert.Equal(t, filepath.Join("/base", "out.csv"), w.resolvePath("out.csv"))
	assert.Equal(t, "/abs/out.csv", w.resolvePath("/abs/out.csv"))

	bare := NewCSVWriter("")
	assert.Equal(t, "rel.csv", bare.resolvePath("rel.csv"))
}
