package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"abc", (97*31+98)*31 + 99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Hash(tt.in), "Hash(%q)", tt.in)
	}
}

func TestHashIsReproducible(t *testing.T) {
	inputs := []string{"budget report", "IMG_0001.jpg", "日本語のファイル名", "emoji 🎉 name"}
	for _, in := range inputs {
		assert.Equal(t, Hash(in), Hash(in), "Hash(%q) must be stable", in)
		assert.GreaterOrEqual(t, Hash(in), int32(0))
	}
}

func TestHashSurrogatePairs(t *testing.T) {
	// Characters outside the BMP encode as two UTF-16 code units; both must
	// feed the hash.
	assert.NotEqual(t, Hash("🎉"), Hash(""))
	assert.NotEqual(t, Hash("a🎉"), Hash("a"))
}

func TestVectorShapeAndDeterminism(t *testing.T) {
	v1 := Vector("notes.txt")
	v2 := Vector("notes.txt")

	assert.Len(t, v1, Dim)
	assert.Equal(t, v1, v2)

	for _, x := range v1 {
		assert.LessOrEqual(t, x, 1.0)
		assert.GreaterOrEqual(t, x, -1.0)
	}
}

func TestVectorDistinguishesInputs(t *testing.T) {
	assert.NotEqual(t, Vector("alpha"), Vector("beta"))
}

func TestCosineIdentity(t *testing.T) {
	v := Vector("same input")
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineDegenerateInputs(t *testing.T) {
	v := Vector("x")

	assert.Zero(t, Cosine(nil, v))
	assert.Zero(t, Cosine(v, nil))
	assert.Zero(t, Cosine(v, v[:Dim-1]))
	assert.Zero(t, Cosine(make([]float64, Dim), v))
}

func TestCosineBounds(t *testing.T) {
	a := Vector("first")
	b := Vector("second")
	c := Cosine(a, b)
	assert.LessOrEqual(t, c, 1.0+1e-9)
	assert.GreaterOrEqual(t, c, -1.0-1e-9)
}
