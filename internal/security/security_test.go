package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTML(t *testing.T) {
	assert.Equal(t, "hello", SanitizeHTML("hello"))
	assert.Contains(t, SanitizeHTML("<script>alert(1)</script>"), "&lt;script&gt;")
}

func TestValidateInput(t *testing.T) {
	clean, ok := ValidateInput("normal question")
	assert.True(t, ok)
	assert.Equal(t, "normal question", clean)

	_, ok = ValidateInput("bad\x01input")
	assert.False(t, ok)

	_, ok = ValidateInput("<script>alert(1)</script>")
	assert.False(t, ok)
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeForLog("a\nb\tc"))
}
