package mpq_test

import (
	"testing"

	"github.com/mna/umscript/lang/mpq"
	"github.com/stretchr/testify/assert"
)

func TestHashStringDeterministic(t *testing.T) {
	a := mpq.HashString("staredit\\scenario.chk", mpq.HashNameA)
	b := mpq.HashString("staredit\\scenario.chk", mpq.HashNameA)
	assert.Equal(t, a, b)
}

func TestHashStringIsCaseInsensitive(t *testing.T) {
	a := mpq.HashString("STAREDIT\\SCENARIO.CHK", mpq.HashNameA)
	b := mpq.HashString("staredit\\scenario.chk", mpq.HashNameA)
	assert.Equal(t, a, b)
}

func TestHashStringFileKeyStripsPath(t *testing.T) {
	a := mpq.HashString("scenario.chk", mpq.HashFileKey)
	b := mpq.HashString("staredit\\scenario.chk", mpq.HashFileKey)
	assert.Equal(t, a, b)
}

func TestHashStringDistinctHashTypesDiffer(t *testing.T) {
	a := mpq.HashString("scenario.chk", mpq.HashNameA)
	b := mpq.HashString("scenario.chk", mpq.HashNameB)
	assert.NotEqual(t, a, b)
}

func TestEncryptDecryptDataRoundtrips(t *testing.T) {
	orig := []byte("a fixed-size payload...")
	buf := make([]byte, len(orig)&^3)
	copy(buf, orig)
	want := append([]byte(nil), buf...)

	key := mpq.HashString("(hash table)", mpq.HashFileKey)
	mpq.EncryptData(buf, key)
	assert.NotEqual(t, want, buf)

	mpq.DecryptData(buf, key)
	assert.Equal(t, want, buf)
}

func TestDetectFileKeyRecoversKnownPlaintextKey(t *testing.T) {
	key := mpq.HashString("unknown.bin", mpq.HashFileKey)
	sectorCount := uint32(3)
	tableSize := (sectorCount + 1) * 4
	block := make([]uint32, sectorCount+1)
	block[0] = tableSize
	block[1] = tableSize + 100

	buf := make([]byte, len(block)*4)
	for i, v := range block {
		buf[i*4], buf[i*4+1], buf[i*4+2], buf[i*4+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	mpq.EncryptData(buf, key-1)

	encrypted := make([]uint32, len(block))
	for i := range encrypted {
		b := buf[i*4:]
		encrypted[i] = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}

	found, ok := mpq.DetectFileKey(encrypted, tableSize, 4096)
	if !ok {
		t.Fatal("expected DetectFileKey to recover the key")
	}
	assert.Equal(t, key, found)
}
