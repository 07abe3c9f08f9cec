// Package embedding produces deterministic pseudo-embeddings for indexed
// files and queries. The vectors are derived from a string hash, not from a
// model: they give the scorer a stable, bit-reproducible similarity signal
// and make ranking testable, but they carry no semantic meaning. Swapping in
// a real embedding model would require revisiting the relevance weighting.
package embedding

import (
	"math"
	"unicode/utf16"
)

// Dim is the fixed length of every vector.
const Dim = 128

// Hash computes a polynomial rolling hash (h*31 + c) over the UTF-16 code
// units of s, wrapping in 32-bit signed arithmetic, and returns the absolute
// value. Identical inputs always produce identical hashes.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	if h < 0 {
		// math.MinInt32 has no positive counterpart; pin it to MaxInt32.
		if h == math.MinInt32 {
			return math.MaxInt32
		}
		return -h
	}
	return h
}

// Vector maps s to a Dim-length vector via trigonometric transforms of its
// hash. Values lie in [-1, 1] and are fully determined by s.
func Vector(s string) []float64 {
	h := float64(Hash(s))
	v := make([]float64, Dim)
	for i := range v {
		if i%2 == 0 {
			v[i] = math.Sin(h / float64(i+1))
		} else {
			v[i] = math.Cos(h / float64(i+1))
		}
	}
	return v
}

// Cosine returns the cosine similarity of a and b. It returns 0, never an
// error, when the vectors are empty, differ in length, or either has zero
// magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
