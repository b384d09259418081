package mpq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressDecompressRoundtrips(t *testing.T) {
	data := []byte("repeat repeat repeat repeat repeat repeat repeat")
	comp, ok := compress(data)
	if !ok {
		t.Skip("data too short to compress under this codec")
	}
	out, err := decompress(comp, len(data))
	assert.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecompressUnsupportedMethodFallsBackToOpaqueBytes(t *testing.T) {
	body := []byte("raw huffman-coded bytes, opaque to us")
	tagged := append([]byte{maskHuffman}, body...)

	out, err := decompress(tagged, len(body)+50)
	assert.True(t, errors.Is(err, ErrUnsupportedCompression))
	assert.Equal(t, body, out)
}

func TestDecompressStoredSectorPassesThrough(t *testing.T) {
	data := []byte("stored, not compressed")
	out, err := decompress(data, len(data))
	assert.NoError(t, err)
	assert.Equal(t, data, out)
}
