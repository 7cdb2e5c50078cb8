package dest

import (
	"math/rand"
)

// splitMix64 mixes a seed into a well distributed value, used to
// derive independent sub-generator seeds from a master seed plus a
// fixed work-item index
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// taskRand returns a generator seeded deterministically from the base
// seed and a work-item index.  Parallel workers each draw from their
// own task generator, so training results do not depend on goroutine
// scheduling
func taskRand(seed int64, index int) *rand.Rand {
	mixed := splitMix64(uint64(seed) ^ splitMix64(uint64(index)))
	return rand.New(rand.NewSource(int64(mixed)))
}

// randomUnitVector draws a uniformly random direction of the given
// dimension, used to project multi-dimensional residuals onto a
// scalar for split scoring
func randomUnitVector(dim int, rnd *rand.Rand) []float32 {

	v := make([]float32, dim)

	for {
		var norm float64

		for i := range v {
			x := rnd.NormFloat64()
			v[i] = float32(x)
			norm += x * x
		}

		if norm > 1e-12 {
			inv := float32(1 / sqrt64(norm))
			for i := range v {
				v[i] *= inv
			}
			return v
		}
	}
}
