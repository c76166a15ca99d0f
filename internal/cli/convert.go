package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/diff"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/internal/tui"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type convertFlagValues struct {
	to            string
	outputDir     string
	packageName   string
	manifest      string
	zip           bool
	merge         bool
	diff          bool
	skipUniqueDir bool
	env           envFlagValues
}

var convertFlags convertFlagValues

var convertCmd = &cobra.Command{
	Use:   "convert <path>",
	Short: "Convert components between source and metadata format",
	Long: `Convert resolves every component under <path> and rewrites it in the
target format.

Metadata format output goes to a package directory (or a zip with --zip)
under --output-dir. Source format output goes to --output-dir, or with
--merge is written next to the matching components in the project's
package directories.

Examples:
  sfmeta convert force-app --output-dir mdapi
  sfmeta convert force-app --zip --output-dir dist --package-name release
  sfmeta convert mdapi/unpackaged --to source --merge --diff`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDirectories,
	RunE:              runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFlags.to, "to", string(convert.FormatMetadata),
		"Target format: source or metadata")
	convertCmd.Flags().StringVarP(&convertFlags.outputDir, "output-dir", "o", ".",
		"Directory that receives the converted package")
	convertCmd.Flags().StringVar(&convertFlags.packageName, "package-name", "",
		"Name of the package directory or zip file (default: unique name)")
	convertCmd.Flags().StringVarP(&convertFlags.manifest, "manifest", "x", "",
		"Convert only the components listed in this package.xml")
	convertCmd.Flags().BoolVar(&convertFlags.zip, "zip", false,
		"Write a zip archive instead of a directory (metadata format only)")
	convertCmd.Flags().BoolVar(&convertFlags.merge, "merge", false,
		"Merge into the project's existing source (source format only)")
	convertCmd.Flags().BoolVar(&convertFlags.diff, "diff", false,
		"Print a unified diff of every file a merge overwrites")
	convertCmd.Flags().BoolVar(&convertFlags.skipUniqueDir, "skip-unique-dir", false,
		"Write straight into --output-dir without a package directory")
	addEnvFlags(convertCmd, &convertFlags.env)

	_ = convertCmd.RegisterFlagCompletionFunc("to", completeFormats)
}

// buildConvertConfig validates the flag combination and builds the output
// description. mergeWith is only consulted for merge output.
func buildConvertConfig(mergeWith func() ([]*components.SourceComponent, error), defaultDir string) (convert.TargetFormat, convert.OutputConfig, error) {
	target, err := parseFormat(convertFlags.to)
	if err != nil {
		return "", convert.OutputConfig{}, err
	}

	switch {
	case convertFlags.zip && target != convert.FormatMetadata:
		return "", convert.OutputConfig{}, fmt.Errorf("%w: --zip requires --to metadata", sfmeta.ErrInvalidConfig)
	case convertFlags.merge && target != convert.FormatSource:
		return "", convert.OutputConfig{}, fmt.Errorf("%w: --merge requires --to source", sfmeta.ErrUnsupportedMerge)
	case convertFlags.diff && !convertFlags.merge:
		return "", convert.OutputConfig{}, fmt.Errorf("%w: --diff requires --merge", sfmeta.ErrInvalidConfig)
	}

	if convertFlags.zip {
		return target, convert.OutputConfig{
			Type:            convert.OutputZip,
			OutputDirectory: convertFlags.outputDir,
			PackageName:     convertFlags.packageName,
		}, nil
	}
	if convertFlags.merge {
		existing, err := mergeWith()
		if err != nil {
			return "", convert.OutputConfig{}, err
		}
		return target, convert.OutputConfig{
			Type:             convert.OutputMerge,
			MergeWith:        existing,
			DefaultDirectory: defaultDir,
			Diff:             convertFlags.diff,
		}, nil
	}
	return target, convert.OutputConfig{
		Type:            convert.OutputDirectory,
		OutputDirectory: convertFlags.outputDir,
		PackageName:     convertFlags.packageName,
		SkipUniqueDir:   convertFlags.skipUniqueDir,
	}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	s, err := newSession(cmd, sourcePath)
	if err != nil {
		return err
	}
	if err := s.useVars(convertFlags.env); err != nil {
		return err
	}

	set, err := resolveComponents(s, sourcePath, convertFlags.manifest)
	if err != nil {
		return err
	}
	if set.Size() == 0 {
		return fmt.Errorf("%w: no components found under %s", sfmeta.ErrMissingComponents, sourcePath)
	}

	mergeWith := func() ([]*components.SourceComponent, error) {
		return projectComponents(s)
	}
	target, out, err := buildConvertConfig(mergeWith, s.defaultSourceDir())
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext(s.stderr, "conversion")
	defer cancel()

	res, err := s.converter().Convert(ctx, set, target, out)
	if err != nil {
		return err
	}

	reportConversion(s, res, target)
	return nil
}

// resolveComponents builds the set for path, narrowed to a manifest when
// one is given.
func resolveComponents(s *session, path, manifestPath string) (*components.ComponentSet, error) {
	if manifestPath != "" {
		set, err := resolve.FromManifest(resolve.ManifestOptions{
			ManifestPath:       manifestPath,
			ResolveSourcePaths: []string{path},
			ProjectDir:         s.settings.ProjectDir,
			Registry:           registry.Default(),
		})
		if err != nil {
			return nil, err
		}
		return s.adoptVersions(set), nil
	}
	set, err := resolve.FromSource(resolve.SourceOptions{
		Paths:      []string{path},
		ProjectDir: s.settings.ProjectDir,
		Registry:   registry.Default(),
	})
	if err != nil {
		return nil, err
	}
	for _, p := range set.ForceIgnoredPaths {
		s.logger.Verbose("Ignored %s (.forceignore)", p)
	}
	return s.adoptVersions(set), nil
}

// projectComponents resolves everything in the project's package
// directories, the targets of a merge.
func projectComponents(s *session) ([]*components.SourceComponent, error) {
	paths := s.packagePaths()
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: merging needs an sfdx-project.json with packageDirectories", sfmeta.ErrInvalidConfig)
	}
	set, err := resolve.FromSource(resolve.SourceOptions{
		Paths:      paths,
		ProjectDir: s.settings.ProjectDir,
		Registry:   registry.Default(),
	})
	if err != nil {
		return nil, err
	}
	var out []*components.SourceComponent
	for c := range set.GetSourceComponents() {
		out = append(out, c)
	}
	return out, nil
}

func reportConversion(s *session, res *convert.Result, target convert.TargetFormat) {
	if len(res.Changes) > 0 {
		tui.RenderFileResponses(s.stdout, "Converted Source", changeResponses(res.Changes))
	}
	if len(res.Diffs) > 0 {
		fmt.Fprint(s.stdout, diff.Render(res.Diffs))
	}

	where := res.PackagePath
	if where == "" {
		where = "the project"
	}
	fmt.Fprintln(s.stderr, tui.SuccessStyle.Render(fmt.Sprintf("%s Converted %d components to %s format in %s",
		tui.SymbolCheck, len(res.Converted), target, where)))
}

func changeResponses(changes []convert.FileChange) []services.FileResponse {
	out := make([]services.FileResponse, 0, len(changes))
	for _, ch := range changes {
		out = append(out, services.FileResponse{
			FullName: ch.FullName,
			Type:     ch.Type,
			State:    services.ComponentState(ch.Status),
			FilePath: ch.Path,
		})
	}
	return out
}

func parseFormat(v string) (convert.TargetFormat, error) {
	switch f := convert.TargetFormat(v); f {
	case convert.FormatSource, convert.FormatMetadata:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want source or metadata)", sfmeta.ErrInvalidConfig, v)
}
