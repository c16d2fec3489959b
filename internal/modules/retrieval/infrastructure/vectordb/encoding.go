package vectordb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vectors are serialized as contiguous little-endian IEEE 754 float32
// values. No length prefix: record boundaries come from the header's
// dimension count.

func encodeVectors(vectors [][]float32, dim int) ([]byte, error) {
	buf := make([]byte, 0, len(vectors)*dim*4)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dim %d, want %d", i, len(v), dim)
		}
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
	}
	return buf, nil
}

func decodeVectors(b []byte, dim int) ([][]float32, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	stride := dim * 4
	if len(b)%stride != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of %d", len(b), stride)
	}
	n := len(b) / stride
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		base := i * stride
		for j := 0; j < dim; j++ {
			bits := binary.LittleEndian.Uint32(b[base+j*4:])
			vec[j] = math.Float32frombits(bits)
		}
		out[i] = vec
	}
	return out, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
