package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `            __                _
  ___ / _|_ __ ___   ___| |_ __ _
 / __| |_| '_ ` + "`" + ` _ \ / _ \ __/ _` + "`" + ` |
 \__ \  _| | | | | |  __/ || (_| |
 |___/_| |_| |_| |_|\___|\__\__,_|`

var rootCmd = &cobra.Command{
	Use:   "sfmeta",
	Short: "Convert, deploy and retrieve Salesforce metadata",
	Long: asciiLogo + `

sfmeta resolves source-format projects and package.xml manifests into
component sets, converts them between source and metadata format, and
moves them to and from an org through the asynchronous metadata API.

Connection settings come from SF_INSTANCE_URL and SF_ACCESS_TOKEN, which
may also be placed in a .env file in the working directory.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration, options or manifest
  11 - Metadata service unreachable
  12 - User denied a destructive deploy
  13 - Deploy or retrieve failed
  14 - Conversion failed
  15 - Timed out waiting for the job`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for sfmeta")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
