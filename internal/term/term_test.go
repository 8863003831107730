package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportsProgressBar(t *testing.T) {
	t.Parallel()

	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}

	require.True(t, supportsProgressBar("ghostty", env(nil)))
	require.True(t, supportsProgressBar("Ghostty", env(nil)))
	require.True(t, supportsProgressBar("", env(map[string]string{"WT_SESSION": "1"})))
	require.False(t, supportsProgressBar("Apple_Terminal", env(nil)))
	require.False(t, supportsProgressBar("", env(nil)))
}
