package tui

import (
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Mode says whether a person is watching: spinners and confirmation
// prompts need one.
type Mode int

const (
	ModeNonInteractive Mode = iota
	ModeInteractive
)

// terminal reports the facts DetectMode depends on. Tests substitute it.
type terminal struct {
	getenv     func(string) string
	isTerminal func(fd int) bool
	stdin      int
	stderr     int
}

func systemTerminal() terminal {
	return terminal{
		getenv:     os.Getenv,
		isTerminal: term.IsTerminal,
		stdin:      int(os.Stdin.Fd()),
		stderr:     int(os.Stderr.Fd()),
	}
}

// DetectMode is non-interactive when any of these hold:
//   - SFMETA_NON_INTERACTIVE is true, or SF_USE_PROGRESS_BAR is false
//   - CI or NO_COLOR is set, or TERM=dumb
//   - stdin (prompts) or stderr (progress) is not a terminal
func DetectMode() Mode {
	return systemTerminal().mode()
}

func (t terminal) mode() Mode {
	if on, err := strconv.ParseBool(t.getenv(sfmeta.EnvNonInteractive)); err == nil && on {
		return ModeNonInteractive
	}
	if on, err := strconv.ParseBool(t.getenv(sfmeta.EnvUseProgressBar)); err == nil && !on {
		return ModeNonInteractive
	}
	if t.getenv("CI") != "" || t.getenv("NO_COLOR") != "" || t.getenv("TERM") == "dumb" {
		return ModeNonInteractive
	}
	if !t.isTerminal(t.stdin) || !t.isTerminal(t.stderr) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
