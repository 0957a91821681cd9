package text

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
		{"lowercase", "Hello World", "hello world"},
		{"strips markup", "plain <b>bold</b> text", "plain bold text"},
		{"collapses whitespace", "a \t b\n\nc", "a b c"},
		{"trims edges", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only markup", "<html><body></body></html>", ""},
		{"mixed", "  <p>The QUICK\nbrown\tfox</p> ", "the quick brown fox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash("the quick brown fox")
	b := Hash("the quick brown fox")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // 256-bit hex digest
}

func TestHash_DistinctContent(t *testing.T) {
	assert.NotEqual(t, Hash("alpha"), Hash("beta"))
}

func TestHash_EmptyString(t *testing.T) {
	// Total over all strings, including empty.
	assert.Len(t, Hash(""), 64)
}

func TestFormattingVariantsHashIdentically(t *testing.T) {
	a := Hash(Normalize("The  Quick <i>Brown</i> Fox"))
	b := Hash(Normalize("the quick brown fox"))

	assert.Equal(t, a, b)
}
