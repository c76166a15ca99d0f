package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type manifestFlagValues struct {
	outputDir   string
	name        string
	apiVersion  string
	packageName string
}

var manifestFlags manifestFlagValues

var manifestCmd = &cobra.Command{
	Use:   "manifest <path>",
	Short: "Generate a package.xml for the components under a path",
	Long: `Manifest resolves every component under <path> and prints the
package.xml describing them. With --output-dir the manifest is written to a
file instead.

Examples:
  sfmeta manifest force-app
  sfmeta manifest force-app --output-dir manifest --api-version 61.0`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDirectories,
	RunE:              runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)

	manifestCmd.Flags().StringVarP(&manifestFlags.outputDir, "output-dir", "o", "",
		"Write the manifest into this directory instead of stdout")
	manifestCmd.Flags().StringVar(&manifestFlags.name, "name", sfmeta.ManifestFileName,
		"File name of the written manifest")
	manifestCmd.Flags().StringVar(&manifestFlags.apiVersion, "api-version", "",
		"Version written to the manifest (default: sourceApiVersion, then "+sfmeta.DefaultAPIVersion+")")
	manifestCmd.Flags().StringVar(&manifestFlags.packageName, "package-name", "",
		"Package name written as <fullName>")
}

func runManifest(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	s, err := newSession(cmd, sourcePath)
	if err != nil {
		return err
	}

	set, err := resolveComponents(s, sourcePath, "")
	if err != nil {
		return err
	}

	set.SourceAPIVersion = manifestFlags.apiVersion
	set.FullName = manifestFlags.packageName

	data, err := set.GetPackageXML(sfmeta.DefaultManifestIndentation)
	if err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}

	if manifestFlags.outputDir == "" {
		_, err := s.stdout.Write(data)
		return err
	}

	if err := os.MkdirAll(manifestFlags.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", manifestFlags.outputDir, err)
	}
	path := filepath.Join(manifestFlags.outputDir, manifestFlags.name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Info("Wrote %s with %d components", path, set.Size())
	return nil
}
