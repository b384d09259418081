package mpq_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/umscript/lang/mpq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string][]byte) *mpq.Archive {
	t.Helper()
	b := mpq.NewBuilder()
	for name, data := range files {
		b.AddFile(name, data)
	}
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))

	a, err := mpq.Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return a
}

func TestArchiveRoundtripsSmallFile(t *testing.T) {
	a := buildArchive(t, map[string][]byte{
		"staredit\\scenario.chk": []byte("hello chunked world"),
	})

	assert.True(t, a.FileExists("staredit\\scenario.chk"))
	got, err := a.ReadFile("staredit\\scenario.chk")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello chunked world"), got)
}

func TestArchiveRoundtripsCompressibleFile(t *testing.T) {
	data := []byte(strings.Repeat("AAAA-BBBB-", 500))
	a := buildArchive(t, map[string][]byte{"big.bin": data})

	got, err := a.ReadFile("big.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestArchiveRoundtripsMultipleFiles(t *testing.T) {
	files := map[string][]byte{
		"staredit\\scenario.chk": []byte("container payload"),
		"readme.txt":             []byte("not a chunked file"),
		"empty.bin":              {},
	}
	a := buildArchive(t, files)

	for name, want := range files {
		got, err := a.ReadFile(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestArchiveReadFileMissingReturnsError(t *testing.T) {
	a := buildArchive(t, map[string][]byte{"a.txt": []byte("x")})
	_, err := a.ReadFile("missing.txt")
	assert.Error(t, err)
}

func TestArchiveFileExistsFalseForMissing(t *testing.T) {
	a := buildArchive(t, map[string][]byte{"a.txt": []byte("x")})
	assert.False(t, a.FileExists("missing.txt"))
}
