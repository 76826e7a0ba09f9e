package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local mobile", "0501234567", "972501234567"},
		{"international with plus", "+972501234567", "972501234567"},
		{"hyphenated", "050-123-4567", "972501234567"},
		{"spaces and parens", "(050) 123 4567", "972501234567"},
		{"already normalized", "972501234567", "972501234567"},
		{"no trunk prefix", "1800123456", "1800123456"},
		{"empty", "", ""},
		{"garbage passes through", "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"0501234567", "+972 50-123-4567", "03-5551234", "not a phone", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize must be idempotent for %q", in)
	}
}
