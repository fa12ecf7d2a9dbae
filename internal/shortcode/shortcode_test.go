package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)

		assert.Len(t, code, DefaultLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q", c)
		}
	}
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 62)
	assert.NotContains(t, Alphabet, "_")
	assert.NotContains(t, Alphabet, "-")
}

func TestNewGenerator(t *testing.T) {
	t.Run("custom length", func(t *testing.T) {
		code, err := NewGenerator(10).Generate()

		assert.NoError(t, err)
		assert.Len(t, code, 10)
	})

	t.Run("non-positive length falls back to default", func(t *testing.T) {
		code, err := NewGenerator(0).Generate()

		assert.NoError(t, err)
		assert.Len(t, code, DefaultLength)
	})
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "abcd", want: true},
		{code: "AB_cd-09", want: true},
		{code: "----", want: true},
		{code: strings.Repeat("x", 256), want: true},
		{code: "", want: false},
		{code: "abc", want: false},
		{code: "abc!", want: false},
		{code: "abc d", want: false},
		{code: "abcé", want: false},
		{code: "abcd\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateFormat(tt.code))
		})
	}
}
