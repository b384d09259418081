package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/umscript/internal/maincmd"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (code mainer.ExitCode, stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "0.0.0", BuildDate: "2026-01-01"}
	code = c.Main(append([]string{"umscript"}, args...), mainer.Stdio{Stdout: &outBuf, Stderr: &errBuf})
	return code, outBuf.String(), errBuf.String()
}

func TestHelpAndVersion(t *testing.T) {
	code, out, _ := run(t, "--help")
	require.Equal(t, mainer.Success, code)
	require.Contains(t, out, "umscript")

	code, out, _ = run(t, "--version")
	require.Equal(t, mainer.Success, code)
	require.Contains(t, out, "0.0.0")
}

func TestUnknownCommandFails(t *testing.T) {
	code, _, errOut := run(t, "bogus")
	require.Equal(t, mainer.InvalidArgs, code)
	require.Contains(t, errOut, "unknown command")
}

func TestCompileWrongArgCountFails(t *testing.T) {
	code, _, errOut := run(t, "compile", "only-one-arg")
	require.Equal(t, mainer.InvalidArgs, code)
	require.Contains(t, errOut, "expected <input-map>")
}

func TestDebuggerFlagRejected(t *testing.T) {
	code, _, errOut := run(t, "--debugger", "compile", "a", "b", "c")
	require.Equal(t, mainer.InvalidArgs, code)
	require.Contains(t, errOut, "not implemented")
}

func TestCompileFailsWithoutRealParser(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.ums")
	require.NoError(t, os.WriteFile(script, []byte("func main() {}"), 0o644))
	inputMap := filepath.Join(dir, "in.scx")
	require.NoError(t, os.WriteFile(inputMap, []byte{}, 0o644))
	outputMap := filepath.Join(dir, "out.scx")

	code, _, errOut := run(t, "compile", inputMap, outputMap, script)
	require.Equal(t, mainer.Failure, code)
	require.Contains(t, errOut, "not implemented in this build")
}

func TestCompileFailsOnMissingScript(t *testing.T) {
	dir := t.TempDir()
	code, _, errOut := run(t, "compile", filepath.Join(dir, "in.scx"), filepath.Join(dir, "out.scx"), filepath.Join(dir, "missing.ums"))
	require.Equal(t, mainer.Failure, code)
	require.Contains(t, errOut, "missing.ums")
}
