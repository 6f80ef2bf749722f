package modules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
)

// ExecuteScript compiles and runs a script source against a fresh
// module/exports object and snapshots the resulting exports table. The
// returned module carries OriginScript; callers publishing fallbacks adjust
// the origin before installing.
func ExecuteScript(name, filename string, source []byte) (*Module, error) {
	prog, err := goja.Compile(filename, string(source), true)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", filename, err)
	}

	rt := goja.New()
	exports, err := runProgram(rt, prog)
	if err != nil {
		return nil, fmt.Errorf("execute %q: %w", filename, err)
	}

	raw, ok := exports.Export().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("execute %q: module exports must be an object", filename)
	}
	table := make(map[string]any, len(raw))
	for k, v := range raw {
		table[k] = v
	}

	version := ""
	if v, ok := table["version"].(string); ok {
		version = strings.TrimSpace(v)
	}

	return &Module{
		Name:    normalize(name),
		Origin:  OriginScript,
		Version: version,
		exports: table,
	}, nil
}

func runProgram(rt *goja.Runtime, prog *goja.Program) (*goja.Object, error) {
	module := rt.NewObject()
	exports := rt.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, fmt.Errorf("module init: %w", err)
	}
	if err := rt.Set("exports", exports); err != nil {
		return nil, fmt.Errorf("module init: %w", err)
	}
	if err := rt.Set("module", module); err != nil {
		return nil, fmt.Errorf("module init: %w", err)
	}
	if err := rt.Set("console", buildConsole(rt)); err != nil {
		return nil, fmt.Errorf("module init: %w", err)
	}

	if _, err := rt.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("module run: %w", err)
	}

	value := module.Get("exports")
	object := value.ToObject(rt)
	if object == nil {
		return nil, fmt.Errorf("module exports must be an object")
	}
	return object, nil
}

func buildConsole(rt *goja.Runtime) *goja.Object {
	console := rt.NewObject()
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	_ = console.Set("log", noop)
	_ = console.Set("error", noop)
	_ = console.Set("warn", noop)
	_ = console.Set("info", noop)
	return console
}

// ScriptDir resolves import names to script files under a root directory.
// Slash-separated module names map to relative paths: "veldt/queueing"
// resolves to <root>/veldt/queueing.js.
type ScriptDir struct {
	root string
}

// NewScriptDir constructs a source rooted at the provided directory. The
// root is resolved to an absolute path so relative roots such as "." keep
// the containment check in Load meaningful.
func NewScriptDir(root string) (*ScriptDir, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("script source: root directory required")
	}
	resolved, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("script source: resolve root %q: %w", trimmed, err)
	}
	return &ScriptDir{root: resolved}, nil
}

// Root returns the filesystem root used by the source.
func (s *ScriptDir) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Load resolves the module name to a script file and executes it.
func (s *ScriptDir) Load(name string) (*Module, error) {
	key := normalize(name)
	if key == "" || strings.Contains(key, "..") {
		return nil, ErrModuleNotFound
	}
	target := filepath.Join(s.root, filepath.FromSlash(key)+".js")
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return nil, ErrModuleNotFound
	}
	// #nosec G304 -- target is constructed via filepath.Join using a sanitized name within the source root.
	source, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("script source: read %q: %w", target, err)
	}
	return ExecuteScript(key, target, source)
}
