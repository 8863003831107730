package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigSchema(t *testing.T) {
	t.Parallel()

	bts, err := configSchema()
	require.NoError(t, err)

	var schema struct {
		Defs map[string]struct {
			Description string                     `json:"description"`
			Properties  map[string]json.RawMessage `json:"properties"`
		} `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(bts, &schema))

	list, ok := schema.Defs["ListOptions"]
	require.True(t, ok)
	require.Contains(t, list.Description, "Windowed list options")
	for _, name := range []string{"threshold_top", "estimated_height", "overscan", "gap", "observe_resize", "wrap", "disable_mouse"} {
		require.Contains(t, list.Properties, name)
	}
	require.Contains(t, schema.Defs["Options"].Properties, "metrics_address")
}
