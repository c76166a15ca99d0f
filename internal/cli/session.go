package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/params"
	"github.com/vvka-141/sfmeta/internal/remote"
	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/internal/tui"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// newMetadataService builds the wire client. Tests replace it with a fake.
var newMetadataService = func(s *config.Settings, logger sfmeta.Logger) (sfmeta.RemoteMetadataService, error) {
	opts := []remote.Option{remote.WithLogger(logger)}
	if s.OrgAPIVersion != "" {
		opts = append(opts, remote.WithAPIVersion(s.OrgAPIVersion))
	}
	client, err := remote.New(s.InstanceURL, s.AccessToken, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// isInteractive decides between the spinner and plain progress lines.
var isInteractive = tui.IsInteractive

// session is the per-command state shared by every subcommand: resolved
// settings, a logger, and one warner so that a warning is printed once per
// process no matter how many transfers run.
type session struct {
	settings *config.Settings
	logger   sfmeta.Logger
	warner   *logging.OnceWarner
	verbose  bool
	stdout   io.Writer
	stderr   io.Writer

	// vars shadow the process environment for replacement rules.
	vars map[string]string
}

// envFlagValues holds --env-file and --env for commands that convert to
// metadata format.
type envFlagValues struct {
	files []string
	pairs []string
}

func addEnvFlags(cmd *cobra.Command, v *envFlagValues) {
	cmd.Flags().StringSliceVar(&v.files, "env-file", nil,
		"Read replacement variables from a .env file (repeatable, later files win)")
	cmd.Flags().StringArrayVarP(&v.pairs, "env", "e", nil,
		"Set a replacement variable (repeatable)\n"+
			"Example: --env API_HOST=uat.example.com")
}

// useVars loads the replacement variables named by v into the session.
func (s *session) useVars(v envFlagValues) error {
	vars, err := params.Collect(v.files, v.pairs)
	if err != nil {
		return fmt.Errorf("%w: %w", sfmeta.ErrInvalidConfig, err)
	}
	if len(vars) > 0 {
		s.logger.Verbose("Using %d replacement variable(s) from the command line", len(vars))
	}
	s.vars = vars
	return nil
}

// newSession loads .env, finds the project enclosing start and resolves
// the effective settings.
func newSession(cmd *cobra.Command, start string) (*session, error) {
	_ = godotenv.Load()

	verbose := getVerboseFlag(cmd)
	projectDir, err := config.FindProjectDir(start)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to locate project: %w", err)
	}

	settings, err := config.Resolve(config.LoadOptions{ProjectDir: projectDir})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), verbose)
	if settings.ProjectDir != "" {
		logger.Verbose("Using project %s", settings.ProjectDir)
	}

	return &session{
		settings: settings,
		logger:   logger,
		warner:   logging.NewOnceWarner(logger),
		verbose:  verbose,
		stdout:   cmd.OutOrStdout(),
		stderr:   cmd.ErrOrStderr(),
	}, nil
}

// connect opens a connection to the configured org.
func (s *session) connect() (*services.Connection, error) {
	svc, err := newMetadataService(s.settings, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Connecting to %s with API version %s", s.settings.InstanceURL, svc.APIVersion())
	return services.NewConnection(svc, s.warner, s.logger), nil
}

func (s *session) converter() *convert.Converter {
	opts := []convert.Option{convert.WithLogger(s.logger)}
	if s.settings.ProjectDir != "" {
		opts = append(opts, convert.WithReplacements(s.settings.ProjectDir, s.settings.Replacements))
	}
	if len(s.vars) > 0 {
		opts = append(opts, convert.WithLookupEnv(params.Lookup(s.vars, nil)))
	}
	return convert.New(opts...)
}

// adoptVersions makes manifests written for set fall back to the project's
// sourceApiVersion and then the configured org version.
func (s *session) adoptVersions(set *components.ComponentSet) *components.ComponentSet {
	set.AddVersionSources(
		components.StaticVersion(s.settings.SourceAPIVersion),
		components.StaticVersion(s.settings.OrgAPIVersion),
	)
	return set
}

func (s *session) serviceOptions(extra ...services.Option) []services.Option {
	opts := []services.Option{
		services.WithLogger(s.logger),
		services.WithSettings(s.settings),
		services.WithConverter(s.converter()),
	}
	return append(opts, extra...)
}

// packagePaths returns the project's package directories as paths usable
// from the working directory.
func (s *session) packagePaths() []string {
	out := make([]string, 0, len(s.settings.PackageDirectories))
	for _, p := range s.settings.PackageDirectories {
		out = append(out, s.projectPath(p))
	}
	return out
}

func (s *session) projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) || s.settings.ProjectDir == "" {
		return p
	}
	return filepath.Join(s.settings.ProjectDir, p)
}

// defaultSourceDir receives merged components that have no local copy.
func (s *session) defaultSourceDir() string {
	if s.settings.DefaultPackagePath == "" {
		return ""
	}
	return filepath.Join(s.projectPath(s.settings.DefaultPackagePath), "main", "default")
}

// progress runs fn under the progress display.
func (s *session) progress(ctx context.Context, title string, onCancel func(), fn tui.RunFunc) error {
	return tui.RunProgress(ctx, tui.ProgressOptions{
		Title:       title,
		Interactive: isInteractive(),
		Output:      s.stderr,
		OnCancel:    onCancel,
	}, fn)
}

// interruptContext returns a context canceled on Ctrl+C or SIGTERM.
func interruptContext(w io.Writer, action string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(w, "\n[INTERRUPT] Received interrupt signal, stopping %s...\n", action)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// targetName is how the org is named in prompts and progress titles.
func targetName(s *config.Settings, flag string) string {
	if flag != "" {
		return flag
	}
	if s.InstanceURL != "" {
		return s.InstanceURL
	}
	return "the target org"
}
