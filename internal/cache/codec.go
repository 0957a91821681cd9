package cache

import (
	"encoding/binary"
	"fmt"
	"math"
)

const float32Size = 4

// encodeVector serializes a float32 vector as little-endian bytes.
func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*float32Size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*float32Size:], math.Float32bits(f))
	}
	return out
}

// decodeVector deserializes a little-endian float32 blob, validating that the
// byte length matches the recorded dimension count.
func decodeVector(b []byte, dims int) ([]float32, error) {
	if dims < 0 || len(b) != dims*float32Size {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d for %d dims",
			len(b), dims*float32Size, dims)
	}
	out := make([]float32, dims)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*float32Size:]))
	}
	return out, nil
}
