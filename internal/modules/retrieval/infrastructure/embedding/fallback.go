package embedding

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// DeterministicVector derives a unit vector of the given dimensionality
// from a text hash. It backs the mock provider and the degraded query-vector
// fallback: results computed from it are debug output, not real retrieval.
func DeterministicVector(text string, dim int) []float64 {
	if dim <= 0 {
		dim = 16
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float64, dim)
	var sum float64
	for i := range vec {
		vec[i] = rng.NormFloat64()
		sum += vec[i] * vec[i]
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
