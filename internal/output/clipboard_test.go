package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whisperclip/whisperclip/internal/config"
)

func committerWithArgv(argv []string) *Committer {
	cfg := config.Default()
	cfg.Clipboard.Argv = argv
	return NewCommitter(cfg, nil)
}

func TestCommitPipesTextToCommand(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "clipboard.txt")
	c := committerWithArgv([]string{"sh", "-c", "cat > " + sink})

	require.NoError(t, c.Commit(context.Background(), "hello clipboard"))

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	require.Equal(t, "hello clipboard", string(data))
}

func TestCommitEmptyTextIsNoop(t *testing.T) {
	c := committerWithArgv([]string{"/definitely/missing/command"})
	require.NoError(t, c.Commit(context.Background(), ""))
}

func TestCommitMissingCommand(t *testing.T) {
	c := committerWithArgv([]string{"/definitely/missing/command"})

	err := c.Commit(context.Background(), "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestCommitCommandFailure(t *testing.T) {
	c := committerWithArgv([]string{"false"})

	err := c.Commit(context.Background(), "text")
	require.Error(t, err)
}

func TestCommitEmptyArgv(t *testing.T) {
	c := committerWithArgv(nil)

	err := c.Commit(context.Background(), "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}
