package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsShowCmd(t *testing.T) {
	env := setupTestServices(t)

	out, _, err := executeCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, env.dir)
	assert.Contains(t, out, "search.max_results")
	assert.Contains(t, out, "content.default_format")
	assert.Contains(t, out, "text")
}

func TestSettingsSetCmd(t *testing.T) {
	env := setupTestServices(t)

	tests := []struct {
		name  string
		key   string
		value string
		want  any
	}{
		{name: "integer", key: "search.max_results", value: "25", want: 25},
		{name: "boolean", key: "search.parallel", value: "false", want: false},
		{name: "string", key: "content.default_format", value: "html", want: "html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, "settings", "set", tt.key, tt.value)
			require.NoError(t, err)
			assert.Contains(t, out, "Set "+tt.key)

			got, ok := env.config.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsSetCmd_UnknownKey(t *testing.T) {
	setupTestServices(t)

	_, _, err := executeCommand(t, "settings", "set", "nope.key", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestParseSettingValue(t *testing.T) {
	assert.Equal(t, 42, parseSettingValue("42"))
	assert.Equal(t, true, parseSettingValue("true"))
	assert.Equal(t, "./zim", parseSettingValue("./zim"))
}
