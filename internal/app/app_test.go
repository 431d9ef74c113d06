package app

import (
	"context"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/commentary"
	"github.com/nfrund/chaosarena/internal/config"
)

func testConfig(mode string) config.Config {
	cfg := config.Defaults()
	cfg.Addr = "127.0.0.1:0"
	cfg.CommentaryMode = mode
	return cfg
}

func TestProvidersFollowConfig(t *testing.T) {
	tests := []struct {
		mode string
		want any
	}{
		{CommentaryScript, &commentary.ScriptGenerator{}},
		{CommentaryHTTP, &commentary.HTTPGenerator{}},
		{CommentaryOff, commentary.NopGenerator{}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			a := New(testConfig(tt.mode), nil)
			gen, err := do.Invoke[commentary.Generator](a.Injector())
			require.NoError(t, err)
			assert.IsType(t, tt.want, gen)
		})
	}

	a := New(testConfig("loud"), nil)
	_, err := do.Invoke[commentary.Generator](a.Injector())
	assert.Error(t, err)
}

func TestCatalogDefaultsToBuiltIn(t *testing.T) {
	a := New(testConfig(CommentaryOff), nil)
	cat, err := do.Invoke[*catalog.Catalog](a.Injector())
	require.NoError(t, err)
	assert.Len(t, cat.Items(), 5)
}

func TestRunUntilCancelled(t *testing.T) {
	a := New(testConfig(CommentaryScript), nil)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		health := a.Health(context.Background())
		if len(health) == 0 {
			return false
		}
		for _, err := range health {
			if err != nil {
				return false
			}
		}
		return true
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, a.modules, 2, "arena and caster")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFailsOnBadCommentaryMode(t *testing.T) {
	a := New(testConfig("loud"), nil)
	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "build modules")
}
