package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SerializeEmbedding packs a vector into a BLOB: four little-endian IEEE 754
// bytes per component, so a 768-dimension vector takes 3072 bytes.
func SerializeEmbedding(emb []float32) []byte {
	buf := make([]byte, len(emb)*4)
	for i, f := range emb {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DeserializeEmbedding reverses SerializeEmbedding. A length that is not a
// multiple of four means the BLOB is corrupt. Empty input yields an empty,
// non-nil vector.
func DeserializeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: length %d not divisible by 4", len(buf))
	}

	floats := make([]float32, len(buf)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return floats, nil
}
