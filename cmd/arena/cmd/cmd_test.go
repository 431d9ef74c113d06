package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestItems(t *testing.T) {
	out, err := run(t, "items")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "spawn_tank")
	assert.Contains(t, out, "buff_damage")
}

func TestItemsMissingCatalog(t *testing.T) {
	_, err := run(t, "items", "--catalog", "/nonexistent/catalog.json")
	assert.Error(t, err)
	itemsCatalog = ""
}

func TestTopics(t *testing.T) {
	out, err := run(t, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "arena.viewer.message")
	assert.Contains(t, out, "arena.event.logged")
	assert.Contains(t, out, "EventLogged")

	out, err = run(t, "topics", "--format", "json")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.NotEmpty(t, list)

	_, err = run(t, "topics", "--format", "yaml")
	assert.Error(t, err)
	topicsFormat = "table"
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "arena v"+version+"\n", out)

	out, err = run(t, "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "go: go")
	versionVerbose = false
}

func TestHostFlagsOverrideConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(hostCmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--addr", ":9999", "--autopilot", "--commentary", "off"}))

	cfg := config.Defaults()
	cfg.TickHz = 30
	applyHostFlags(cmd, &cfg)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.True(t, cfg.Autopilot)
	assert.Equal(t, "off", cfg.CommentaryMode)
	assert.Equal(t, 30, cfg.TickHz, "unset flags keep the environment value")
}
