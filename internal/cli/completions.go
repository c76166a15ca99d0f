package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// testLevels contains valid deploy test levels for shell completion.
var testLevels = []string{
	string(sfmeta.TestLevelNoTestRun),
	string(sfmeta.TestLevelRunSpecifiedTests),
	string(sfmeta.TestLevelRunLocalTests),
	string(sfmeta.TestLevelRunAllTestsInOrg),
	string(sfmeta.TestLevelRunRelevantTests),
}

// formats contains the conversion target formats.
var formats = []string{string(convert.FormatSource), string(convert.FormatMetadata)}

func matchPrefix(values []string, toComplete string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeTestLevels provides shell completion for --test-level.
func completeTestLevels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matchPrefix(testLevels, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for format flags.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matchPrefix(formats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
