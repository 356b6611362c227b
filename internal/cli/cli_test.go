package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandHelp, parsed.Command)
	require.True(t, parsed.ShowHelp)
}

func TestParseSimpleCommands(t *testing.T) {
	for _, cmd := range []Command{
		CommandServe, CommandToggle, CommandStart, CommandStop,
		CommandStatus, CommandCopy, CommandDevices, CommandDoctor, CommandVersion,
	} {
		parsed, err := Parse([]string{string(cmd)})
		require.NoError(t, err, "command %s", cmd)
		require.Equal(t, cmd, parsed.Command)
		require.False(t, parsed.ShowHelp)
		require.Empty(t, parsed.Args)
	}
}

func TestParseConfigFlag(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/custom.yaml", "status"})
	require.NoError(t, err)
	require.Equal(t, CommandStatus, parsed.Command)
	require.Equal(t, "/tmp/custom.yaml", parsed.ConfigPath)

	_, err = Parse([]string{"--config"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires a path")
}

func TestParseModelCommand(t *testing.T) {
	parsed, err := Parse([]string{"model", "medium"})
	require.NoError(t, err)
	require.Equal(t, CommandModel, parsed.Command)
	require.Equal(t, []string{"medium"}, parsed.Args)

	_, err = Parse([]string{"model"})
	require.Error(t, err)

	_, err = Parse([]string{"model", "base", "extra"})
	require.Error(t, err)
}

func TestParseHistoryCommand(t *testing.T) {
	parsed, err := Parse([]string{"history"})
	require.NoError(t, err)
	require.Equal(t, CommandHistory, parsed.Command)
	require.Empty(t, parsed.Args)

	parsed, err = Parse([]string{"history", "25"})
	require.NoError(t, err)
	require.Equal(t, []string{"25"}, parsed.Args)

	_, err = Parse([]string{"history", "nope"})
	require.Error(t, err)

	_, err = Parse([]string{"history", "-3"})
	require.Error(t, err)
}

func TestParseGlossaryCommands(t *testing.T) {
	parsed, err := Parse([]string{"glossary", "list"})
	require.NoError(t, err)
	require.Equal(t, CommandGlossary, parsed.Command)
	require.Equal(t, []string{"list"}, parsed.Args)

	parsed, err = Parse([]string{"glossary", "add", "Kubernetes", "container orchestration"})
	require.NoError(t, err)
	require.Equal(t, []string{"add", "Kubernetes", "container orchestration"}, parsed.Args)

	parsed, err = Parse([]string{"glossary", "add", "Kubernetes"})
	require.NoError(t, err)
	require.Equal(t, []string{"add", "Kubernetes"}, parsed.Args)

	parsed, err = Parse([]string{"glossary", "remove", "Kubernetes"})
	require.NoError(t, err)
	require.Equal(t, []string{"remove", "Kubernetes"}, parsed.Args)

	for _, sub := range []string{"on", "off"} {
		parsed, err = Parse([]string{"glossary", sub})
		require.NoError(t, err)
		require.Equal(t, []string{sub}, parsed.Args)
	}

	_, err = Parse([]string{"glossary"})
	require.Error(t, err)

	_, err = Parse([]string{"glossary", "frobnicate"})
	require.Error(t, err)

	_, err = Parse([]string{"glossary", "add"})
	require.Error(t, err)

	_, err = Parse([]string{"glossary", "remove"})
	require.Error(t, err)

	_, err = Parse([]string{"glossary", "list", "extra"})
	require.Error(t, err)
}

func TestParseRejectsUnknownInput(t *testing.T) {
	_, err := Parse([]string{"definitely-unknown"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")

	_, err = Parse([]string{"--definitely-unknown"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown flag")

	_, err = Parse([]string{"status", "extra"})
	require.Error(t, err)
}

func TestHelpTextMentionsCommands(t *testing.T) {
	text := HelpText("whisperclip")
	for _, want := range []string{"serve", "toggle", "model NAME", "glossary add", "history [N]", "doctor", "--config PATH"} {
		require.Contains(t, text, want)
	}
}
