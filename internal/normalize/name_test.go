package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Jane Doe", TitleCase("jane doe"))
	assert.Equal(t, "Jane Doe", TitleCase("  JANE DOE "))
	assert.Equal(t, "", TitleCase("   "))
}

func TestIsPlaceholderName(t *testing.T) {
	for _, name := range []string{"", "  ", "unknown", "N/A", "null", "-", "None"} {
		assert.True(t, IsPlaceholderName(name), "name=%q", name)
	}
	assert.False(t, IsPlaceholderName("Jane"))
	assert.False(t, IsPlaceholderName("acme"))
}
