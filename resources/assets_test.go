package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogosAreEmbeddedAndCached(t *testing.T) {
	for _, name := range []string{IdleLogo, ActiveLogo} {
		first, err := Logo(name)
		require.NoError(t, err)
		assert.Contains(t, string(first.Content()), "<svg")

		second, err := Logo(name)
		require.NoError(t, err)
		assert.Same(t, first, second)
	}
}

func TestMissingLogoFails(t *testing.T) {
	_, err := Logo("missing.svg")
	assert.Error(t, err)
	assert.Panics(t, func() { MustLogo("missing.svg") })
}
