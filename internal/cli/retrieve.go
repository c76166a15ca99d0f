package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/diff"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/internal/tui"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type retrieveFlagValues struct {
	manifest     string
	packageNames []string
	outputDir    string
	format       string
	merge        bool
	diff         bool
	unzip        bool
	zipFileName  string
	wait         time.Duration
}

var retrieveFlags retrieveFlagValues

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Retrieve components from an org",
	Long: `Retrieve asks the org for the components in a package.xml (or for whole
packages), waits for the job and writes what comes back.

Source format output goes to --output-dir, or with --merge replaces the
matching files in the project's package directories. Metadata format output
is written as a zip unless --unzip is given.

Examples:
  sfmeta retrieve --manifest manifest/package.xml --merge
  sfmeta retrieve --manifest package.xml --output-dir retrieved
  sfmeta retrieve --package-name MyPackage --format metadata --output-dir out`,
	Args: cobra.NoArgs,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)

	retrieveCmd.Flags().StringVarP(&retrieveFlags.manifest, "manifest", "x", "",
		"package.xml listing the components to retrieve")
	retrieveCmd.Flags().StringSliceVarP(&retrieveFlags.packageNames, "package-name", "n", nil,
		"Package to retrieve (can be specified multiple times)")
	retrieveCmd.Flags().StringVarP(&retrieveFlags.outputDir, "output-dir", "o", "",
		"Directory for retrieved files (default: current directory, or the default package directory with --merge)")
	retrieveCmd.Flags().StringVar(&retrieveFlags.format, "format", string(convert.FormatSource),
		"Output format: source or metadata")
	retrieveCmd.Flags().BoolVar(&retrieveFlags.merge, "merge", false,
		"Overwrite the matching local source files (source format only)")
	retrieveCmd.Flags().BoolVar(&retrieveFlags.diff, "diff", false,
		"Print a unified diff of every file a merge overwrites")
	retrieveCmd.Flags().BoolVar(&retrieveFlags.unzip, "unzip", false,
		"Extract metadata format output instead of writing a zip")
	retrieveCmd.Flags().StringVar(&retrieveFlags.zipFileName, "zip-file-name", services.DefaultZipFileName,
		"Name of the zip written for metadata format output")
	retrieveCmd.Flags().DurationVarP(&retrieveFlags.wait, "wait", "w", sfmeta.DefaultPollingTimeout,
		"How long to wait for the retrieve to finish")

	_ = retrieveCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// buildRetrieveOptions checks the flag combination and resolves the
// components to ask for. With --merge the local copies are added to the
// same set so that they become the merge targets.
func buildRetrieveOptions(s *session) (services.RetrieveOptions, error) {
	format, err := parseFormat(retrieveFlags.format)
	if err != nil {
		return services.RetrieveOptions{}, err
	}
	switch {
	case retrieveFlags.merge && format != convert.FormatSource:
		return services.RetrieveOptions{}, fmt.Errorf("%w: --merge requires --format source", sfmeta.ErrUnsupportedMerge)
	case retrieveFlags.diff && !retrieveFlags.merge:
		return services.RetrieveOptions{}, fmt.Errorf("%w: --diff requires --merge", sfmeta.ErrInvalidConfig)
	case retrieveFlags.manifest == "" && len(retrieveFlags.packageNames) == 0:
		return services.RetrieveOptions{}, fmt.Errorf("%w: specify --manifest or --package-name", sfmeta.ErrMissingComponents)
	}

	opts := services.RetrieveOptions{
		PackageNames:  retrieveFlags.packageNames,
		Output:        retrieveFlags.outputDir,
		Format:        format,
		Merge:         retrieveFlags.merge,
		Diff:          retrieveFlags.diff,
		Unzip:         retrieveFlags.unzip,
		ZipFileName:   retrieveFlags.zipFileName,
		SkipUniqueDir: true,
	}

	if retrieveFlags.manifest != "" {
		set, err := resolve.FromManifest(resolve.ManifestOptions{
			ManifestPath: retrieveFlags.manifest,
			ProjectDir:   s.settings.ProjectDir,
			Registry:     registry.Default(),
		})
		if err != nil {
			return services.RetrieveOptions{}, err
		}
		opts.Components = s.adoptVersions(set)
	}

	if retrieveFlags.merge {
		if err := addLocalCopies(s, opts.Components); err != nil {
			return services.RetrieveOptions{}, err
		}
		if opts.Output == "" {
			opts.Output = s.defaultSourceDir()
		}
		if opts.Output == "" {
			return services.RetrieveOptions{}, fmt.Errorf("%w: --merge needs --output-dir or a default package directory", sfmeta.ErrInvalidConfig)
		}
	}
	if opts.Output == "" {
		opts.Output = "."
	}
	return opts, nil
}

// addLocalCopies adds the project's source for every component in set.
func addLocalCopies(s *session, set *components.ComponentSet) error {
	if set == nil {
		return nil
	}
	paths := s.packagePaths()
	if len(paths) == 0 {
		return nil
	}
	local, err := resolve.FromSource(resolve.SourceOptions{
		Paths:      paths,
		ProjectDir: s.settings.ProjectDir,
		Include:    set,
		Registry:   set.Registry(),
	})
	if err != nil {
		return err
	}
	for c := range local.GetSourceComponents() {
		set.Add(c)
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, ".")
	if err != nil {
		return err
	}

	opts, err := buildRetrieveOptions(s)
	if err != nil {
		return err
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	retrieve := services.NewMetadataAPIRetrieve(conn, opts, s.serviceOptions()...)

	ctx, cancel := interruptContext(s.stderr, "retrieve")
	defer cancel()

	job, err := retrieve.Start(ctx)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}
	s.logger.Verbose("Retrieve job id: %s", job.ID)

	onCancel := func() {
		if err := retrieve.Cancel(ctx); err != nil {
			s.logger.Warn("Failed to cancel retrieve %s: %v", retrieve.ID(), err)
		}
	}

	var result *services.RetrieveResult
	err = s.progress(ctx, "Retrieving from "+targetName(s.settings, ""), onCancel, func(ctx context.Context, report func(string)) (string, error) {
		retrieve.OnUpdate(func(st sfmeta.RetrieveStatus) { report(tui.RetrieveStatusLine(st)) })
		r, err := retrieve.PollStatus(ctx, transfer.PollingOptions{Timeout: retrieveFlags.wait})
		if err != nil {
			return "", err
		}
		result = r
		return retrieveOutcome(r)
	})

	if result != nil && !result.Response.IsCanceled() {
		tui.RenderFileResponses(s.stdout, "Retrieved Source", result.GetFileResponses())
		if len(result.Diffs) > 0 {
			fmt.Fprint(s.stdout, diff.Render(result.Diffs))
		}
	}
	return err
}

func retrieveOutcome(r *services.RetrieveResult) (string, error) {
	st := r.Response
	switch {
	case st.IsCanceled():
		return fmt.Sprintf("Retrieve %s canceled", st.ID), nil
	case st.Status == sfmeta.StatusFailed:
		return "", fmt.Errorf("%w: retrieve %s failed", sfmeta.ErrTransferFailed, st.ID)
	}
	n := 0
	if r.Components != nil {
		n = r.Components.Size()
	}
	return fmt.Sprintf("Retrieved %d components (%s)", n, st.ID), nil
}
