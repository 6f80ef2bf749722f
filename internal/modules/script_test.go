package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteScriptSnapshotsExports(t *testing.T) {
	source := []byte(`
		var mapping = { audio: "AudioSerializable", file: "FileSerializable" };
		module.exports = {
			version: "1.3.0",
			SERIALIZER_MAPPING: mapping,
			identity: function (x) { return x; }
		};
	`)
	module, err := ExecuteScript("veldt-client/serializing", "serializing.js", source)
	require.NoError(t, err)
	require.Equal(t, OriginScript, module.Origin)
	require.Equal(t, "1.3.0", module.Version)

	mapping, ok := module.Export("SERIALIZER_MAPPING")
	require.True(t, ok)
	require.Equal(t, "AudioSerializable", mapping.(map[string]any)["audio"])
	require.True(t, module.HasExport("identity"))
}

func TestExecuteScriptWithoutVersionExport(t *testing.T) {
	module, err := ExecuteScript("veldt", "veldt.js", []byte(`module.exports = { ready: true };`))
	require.NoError(t, err)
	require.Equal(t, "", module.Version)
	require.True(t, module.HasExport("ready"))
}

func TestExecuteScriptCompileError(t *testing.T) {
	_, err := ExecuteScript("broken", "broken.js", []byte(`function {`))
	require.Error(t, err)
}

func TestExecuteScriptRuntimeThrow(t *testing.T) {
	_, err := ExecuteScript("throws", "throws.js", []byte(`throw new Error("init failed");`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "init failed")
}

func TestExecuteScriptConsoleIsNoop(t *testing.T) {
	module, err := ExecuteScript("chatty", "chatty.js", []byte(`
		console.log("hello");
		console.warn("warn");
		module.exports = { version: "0.1.0" };
	`))
	require.NoError(t, err)
	require.Equal(t, "0.1.0", module.Version)
}

func TestNewScriptDirRequiresRoot(t *testing.T) {
	_, err := NewScriptDir("   ")
	require.Error(t, err)
}

func TestScriptDirResolvesRelativeRoot(t *testing.T) {
	root := t.TempDir()
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prevDir)) })

	target := filepath.Join(root, "veldt-client", "serializing.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, []byte(`module.exports = { version: "1.9.0" };`), 0o600))

	source, err := NewScriptDir(".")
	require.NoError(t, err)

	module, err := source.Load("veldt-client/serializing")
	require.NoError(t, err)
	require.Equal(t, "1.9.0", module.Version)

	_, err = source.Load("../escape")
	require.ErrorIs(t, err, ErrModuleNotFound)
}
