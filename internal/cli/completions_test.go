package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteTestLevels(t *testing.T) {
	cmd := &cobra.Command{}

	t.Run("returns all levels for empty input", func(t *testing.T) {
		completions, directive := completeTestLevels(cmd, nil, "")
		if len(completions) != len(testLevels) {
			t.Errorf("expected %d completions, got %d", len(testLevels), len(completions))
		}
		if directive != cobra.ShellCompDirectiveNoFileComp {
			t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
		}
	})

	t.Run("filters by prefix", func(t *testing.T) {
		completions, _ := completeTestLevels(cmd, nil, "RunA")
		if len(completions) != 1 || completions[0] != "RunAllTestsInOrg" {
			t.Errorf("expected [RunAllTestsInOrg], got %v", completions)
		}
	})

	t.Run("returns empty for non-matching prefix", func(t *testing.T) {
		completions, _ := completeTestLevels(cmd, nil, "xyz")
		if len(completions) != 0 {
			t.Errorf("expected 0 completions, got %d", len(completions))
		}
	})
}

func TestCompleteFormats(t *testing.T) {
	completions, _ := completeFormats(&cobra.Command{}, nil, "m")
	if len(completions) != 1 || completions[0] != "metadata" {
		t.Errorf("expected [metadata], got %v", completions)
	}
}

func TestCompleteDirectories(t *testing.T) {
	cmd := &cobra.Command{}

	t.Run("returns FilterDirs directive for first arg", func(t *testing.T) {
		_, directive := completeDirectories(cmd, nil, "")
		if directive != cobra.ShellCompDirectiveFilterDirs {
			t.Errorf("expected ShellCompDirectiveFilterDirs, got %v", directive)
		}
	})

	t.Run("returns NoFileComp when args already provided", func(t *testing.T) {
		_, directive := completeDirectories(cmd, []string{"./existing"}, "")
		if directive != cobra.ShellCompDirectiveNoFileComp {
			t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
		}
	})
}
