// Package cli parses command-line arguments into dispatchable commands.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandServe    Command = "serve"
	CommandToggle   Command = "toggle"
	CommandStart    Command = "start"
	CommandStop     Command = "stop"
	CommandStatus   Command = "status"
	CommandModel    Command = "model"
	CommandCopy     Command = "copy"
	CommandGlossary Command = "glossary"
	CommandHistory  Command = "history"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// Glossary subcommands accepted after "glossary".
const (
	GlossaryList   = "list"
	GlossaryAdd    = "add"
	GlossaryRemove = "remove"
	GlossaryOn     = "on"
	GlossaryOff    = "off"
)

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	i := 0
	for ; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			rest := args[i+1:]
			if err := validateArgs(cmd, rest); err != nil {
				return Parsed{}, err
			}

			parsed.Command = cmd
			parsed.Args = rest
			parsed.ShowHelp = cmd == CommandHelp
			return parsed, nil
		}
	}

	return parsed, nil
}

// validateArgs checks per-command argument arity and shape.
func validateArgs(cmd Command, rest []string) error {
	switch cmd {
	case CommandServe, CommandToggle, CommandStart, CommandStop, CommandStatus,
		CommandCopy, CommandDevices, CommandDoctor, CommandVersion, CommandHelp:
		if len(rest) != 0 {
			return fmt.Errorf("unexpected arguments after command %q", cmd)
		}
	case CommandModel:
		if len(rest) != 1 || strings.TrimSpace(rest[0]) == "" {
			return errors.New("model requires exactly one model name")
		}
	case CommandHistory:
		if len(rest) > 1 {
			return errors.New("history accepts at most one count argument")
		}
		if len(rest) == 1 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("history count must be a positive integer, got %q", rest[0])
			}
		}
	case CommandGlossary:
		return validateGlossaryArgs(rest)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func validateGlossaryArgs(rest []string) error {
	if len(rest) == 0 {
		return errors.New("glossary requires a subcommand: list, add, remove, on, off")
	}
	switch rest[0] {
	case GlossaryList, GlossaryOn, GlossaryOff:
		if len(rest) != 1 {
			return fmt.Errorf("glossary %s takes no arguments", rest[0])
		}
	case GlossaryAdd:
		if len(rest) < 2 || len(rest) > 3 || strings.TrimSpace(rest[1]) == "" {
			return errors.New("glossary add requires TERM and optional DESCRIPTION")
		}
	case GlossaryRemove:
		if len(rest) != 2 || strings.TrimSpace(rest[1]) == "" {
			return errors.New("glossary remove requires exactly one TERM")
		}
	default:
		return fmt.Errorf("unknown glossary subcommand: %s", rest[0])
	}
	return nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  serve             Run the dictation daemon
  toggle            Start recording or stop+transcribe when already recording
  start             Start recording
  stop              Stop recording and transcribe
  status            Print daemon state
  model NAME        Switch transcription model (base, small, medium, large)
  copy              Re-copy the latest transcript to the clipboard
  glossary list     Show glossary terms
  glossary add TERM [DESC]
                    Add or update a glossary term
  glossary remove TERM
                    Remove a glossary term
  glossary on|off   Toggle the glossary rewrite pass
  history [N]       Show the N most recent transcripts (default 10)
  devices           List available input devices
  doctor            Run configuration and environment checks
  version           Print version information
  help              Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/whisperclip/config.yaml)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
