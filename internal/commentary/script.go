package commentary

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

//go:embed caster.tengo
var defaultScript []byte

// maxAllocs caps objects a caster script may allocate per run.
const maxAllocs = 10000

// ScriptGenerator writes caster lines with a sandboxed tengo script. The
// embedded script is used unless a path is given; an overriding script is
// reloaded when the file changes.
type ScriptGenerator struct {
	fs     afero.Fs
	path   string
	roll   func() int
	logger *slog.Logger

	mu       sync.RWMutex
	compiled *tengo.Compiled
}

// ScriptOption configures a ScriptGenerator.
type ScriptOption func(*ScriptGenerator)

// WithRoll replaces the random source scripts use to pick lines.
func WithRoll(roll func() int) ScriptOption {
	return func(g *ScriptGenerator) { g.roll = roll }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ScriptOption {
	return func(g *ScriptGenerator) { g.logger = logger }
}

// NewScriptGenerator compiles the caster script at path on fs, or the
// embedded one when path is empty.
func NewScriptGenerator(fs afero.Fs, path string, opts ...ScriptOption) (*ScriptGenerator, error) {
	g := &ScriptGenerator{
		fs:     fs,
		path:   path,
		roll:   func() int { return rand.Intn(1 << 16) },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("service", "commentary_script")

	if err := g.Reload(); err != nil {
		return nil, err
	}
	return g, nil
}

// Reload recompiles the script. On failure the previous script stays live.
func (g *ScriptGenerator) Reload() error {
	src := defaultScript
	if g.path != "" {
		data, err := afero.ReadFile(g.fs, g.path)
		if err != nil {
			return fmt.Errorf("read caster script: %w", err)
		}
		src = data
	}

	compiled, err := compileCaster(src)
	if err != nil {
		return fmt.Errorf("compile caster script %q: %w", g.name(), err)
	}

	g.mu.Lock()
	g.compiled = compiled
	g.mu.Unlock()
	g.logger.Debug("Caster script loaded", "script", g.name())
	return nil
}

func (g *ScriptGenerator) name() string {
	if g.path == "" {
		return "embedded"
	}
	return g.path
}

func compileCaster(src []byte) (*tengo.Compiled, error) {
	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap("fmt", "text"))
	s.SetMaxAllocs(maxAllocs)
	for name, zero := range map[string]any{"event": "", "score": 0, "hp": 0, "roll": 0} {
		if err := s.Add(name, zero); err != nil {
			return nil, err
		}
	}
	return s.Compile()
}

// Generate runs a copy of the compiled script for p.
func (g *ScriptGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	g.mu.RLock()
	run := g.compiled.Clone()
	g.mu.RUnlock()

	roll := g.roll()
	if roll < 0 {
		roll = -roll
	}
	vars := map[string]any{"event": p.Event, "score": p.Score, "hp": p.HPPercent, "roll": roll}
	for name, v := range vars {
		if err := run.Set(name, v); err != nil {
			return "", fmt.Errorf("set %s: %w", name, err)
		}
	}
	if err := run.RunContext(ctx); err != nil {
		return "", fmt.Errorf("run caster script: %w", err)
	}

	if !run.IsDefined("line") {
		return "", errors.New("caster script did not define line")
	}
	line := strings.TrimSpace(run.Get("line").String())
	if line == "" {
		return "", errors.New("caster script produced an empty line")
	}
	return line, nil
}

// Watch reloads the script whenever its file is written or replaced, until
// ctx is cancelled. It is a no-op for the embedded script.
func (g *ScriptGenerator) Watch(ctx context.Context) error {
	if g.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create script watcher: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(g.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(g.path), err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(g.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := g.Reload(); err != nil {
					g.logger.Error("Caster script reload failed, keeping previous version", "error", err)
					continue
				}
				g.logger.Info("Caster script reloaded", "path", g.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				g.logger.Error("Script watcher error", "error", err)
			}
		}
	}()
	return nil
}
