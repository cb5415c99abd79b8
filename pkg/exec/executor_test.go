package exec

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealCommandExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	e := DefaultExecutor()

	t.Run("captures stdout", func(t *testing.T) {
		stdout, stderr, err := e.Execute(context.Background(), t.TempDir(), "sh", "-c", "echo hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(stdout))
		assert.Empty(t, stderr)
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		stdout, _, err := e.Execute(context.Background(), dir, "pwd")
		require.NoError(t, err)
		assert.Contains(t, string(stdout), dir)
	})

	t.Run("non-zero exit is an ExitError", func(t *testing.T) {
		_, _, err := e.Execute(context.Background(), t.TempDir(), "sh", "-c", "exit 3")
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.ExitCode())
	})
}
