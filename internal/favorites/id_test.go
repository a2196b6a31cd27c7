package favorites

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID_Accepts(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 5, 5},
		{"int64", int64(42), 42},
		{"uint8", uint8(7), 7},
		{"integral float", float64(12), 12},
		{"json number", json.Number("99"), 99},
		{"json number float form", json.Number("3.0"), 3},
		{"string", "17", 17},
		{"padded string", "  8 ", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseID_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"word", "abc"},
		{"partial number", "12abc"},
		{"fraction", 1.5},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"bool", true},
		{"slice", []int{1}},
		{"json fraction", json.Number("2.5")},
		{"zero", 0},
		{"negative", -4},
		{"negative string", "-3"},
		{"zero float", float64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseID(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidID))

			var invalid *InvalidIDError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Error(), "must be a positive whole number")
		})
	}
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Canonicalize([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{}, Canonicalize(nil))
}
