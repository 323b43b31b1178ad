// Package distance provides the vector math used throughout annex.
//
// Stored and query vectors are unit-normalized on the way in, so cosine
// similarity reduces to a plain dot product; Dot is the sole scoring
// function used by the searcher.
package distance

import (
	"math"
	"slices"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm calculates the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// NormalizeL2InPlace L2-normalizes v in place.
// A zero vector is left unchanged and false is returned; such a vector has
// undefined cosine similarity and scores 0 against every query.
func NormalizeL2InPlace(v []float32) bool {
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// A zero vector is returned as an unmodified copy, with ok=false.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	ok := NormalizeL2InPlace(dst)
	return dst, ok
}
