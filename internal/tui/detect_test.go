package tui

import "testing"

func fakeTerminal(env map[string]string, ttys ...int) terminal {
	return terminal{
		getenv: func(k string) string { return env[k] },
		isTerminal: func(fd int) bool {
			for _, t := range ttys {
				if t == fd {
					return true
				}
			}
			return false
		},
		stdin:  0,
		stderr: 2,
	}
}

func TestTerminalMode(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		ttys []int
		want Mode
	}{
		{"terminal", nil, []int{0, 2}, ModeInteractive},
		{"non-interactive flag", map[string]string{"SFMETA_NON_INTERACTIVE": "1"}, []int{0, 2}, ModeNonInteractive},
		{"non-interactive true", map[string]string{"SFMETA_NON_INTERACTIVE": "true"}, []int{0, 2}, ModeNonInteractive},
		{"non-interactive false", map[string]string{"SFMETA_NON_INTERACTIVE": "false"}, []int{0, 2}, ModeInteractive},
		{"non-interactive garbage", map[string]string{"SFMETA_NON_INTERACTIVE": "yes"}, []int{0, 2}, ModeInteractive},
		{"progress bar off", map[string]string{"SF_USE_PROGRESS_BAR": "false"}, []int{0, 2}, ModeNonInteractive},
		{"progress bar on", map[string]string{"SF_USE_PROGRESS_BAR": "true"}, []int{0, 2}, ModeInteractive},
		{"CI", map[string]string{"CI": "true"}, []int{0, 2}, ModeNonInteractive},
		{"NO_COLOR", map[string]string{"NO_COLOR": "1"}, []int{0, 2}, ModeNonInteractive},
		{"dumb terminal", map[string]string{"TERM": "dumb"}, []int{0, 2}, ModeNonInteractive},
		{"stdin piped", nil, []int{2}, ModeNonInteractive},
		{"stderr redirected", nil, []int{0}, ModeNonInteractive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fakeTerminal(tt.env, tt.ttys...).mode(); got != tt.want {
				t.Errorf("mode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsInteractive_FalseUnderGoTest(t *testing.T) {
	t.Setenv("SFMETA_NON_INTERACTIVE", "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	if IsInteractive() {
		t.Error("IsInteractive() = true without a terminal")
	}
}
