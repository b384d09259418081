package chk_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mna/umscript/lang/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildContainer concatenates tag+length+payload chunks into one buffer.
func buildContainer(t *testing.T, chunks ...struct {
	tag  string
	data []byte
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, c := range chunks {
		var tag [4]byte
		copy(tag[:], c.tag)
		buf.Write(tag[:])
		var ln [4]byte
		binary.LittleEndian.PutUint32(ln[:], uint32(len(c.data)))
		buf.Write(ln[:])
		buf.Write(c.data)
	}
	return buf.Bytes()
}

func tagData(tag string, data []byte) struct {
	tag  string
	data []byte
} {
	return struct {
		tag  string
		data []byte
	}{tag, data}
}

func TestOpenParsesChunkList(t *testing.T) {
	raw := buildContainer(t,
		tagData("VER ", []byte{59, 0}),
		tagData("XTRA", []byte{1, 2, 3}),
	)
	f, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.ChunkCount())
	assert.True(t, f.HasChunk(chk.TagVersion))
	assert.True(t, f.HasChunk("XTRA"))

	v, ok := f.Version()
	require.True(t, ok)
	assert.Equal(t, uint16(59), v)
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	raw := []byte{'V', 'E', 'R', ' ', 1, 2}
	_, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	require.Error(t, err)
}

func TestOpenRejectsLengthPastEnd(t *testing.T) {
	raw := buildContainer(t, tagData("VER ", []byte{1, 2}))
	raw = raw[:len(raw)-1] // truncate the payload itself
	_, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	require.Error(t, err)
}

func TestSerializeRoundTripsUnmodifiedChunks(t *testing.T) {
	raw := buildContainer(t,
		tagData("VER ", []byte{59, 0}),
		tagData("UNKN", []byte{9, 9, 9, 9}),
	)
	f, err := chk.Create(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	assert.Equal(t, raw, f.Serialize())
}

func TestSetFirstChunkFailsOnReadOnlyFile(t *testing.T) {
	raw := buildContainer(t, tagData("VER ", []byte{1, 0}))
	f, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	err = f.SetVersion(2)
	assert.Error(t, err)
}

func TestSetFirstChunkAppendsNewTag(t *testing.T) {
	f, err := chk.Create(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	require.NoError(t, f.SetVersion(59))
	v, ok := f.Version()
	require.True(t, ok)
	assert.Equal(t, uint16(59), v)
	assert.Equal(t, 1, f.ChunkCount())
}

func TestChunkTagsPreservesFirstSeenOrder(t *testing.T) {
	raw := buildContainer(t,
		tagData("STR ", []byte{0, 0}),
		tagData("VER ", []byte{1, 0}),
		tagData("STR ", []byte{0, 0}),
	)
	f, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	assert.Equal(t, []chk.Tag{chk.TagStrings, chk.TagVersion}, f.ChunkTags())
	assert.Len(t, f.Chunks(chk.TagStrings), 2)
}
