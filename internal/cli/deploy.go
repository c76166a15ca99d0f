package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/internal/tui"
	"github.com/vvka-141/sfmeta/internal/ui"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type deployFlagValues struct {
	manifest        string
	preDestructive  string
	postDestructive string

	testLevel      string
	runTests       []string
	purgeOnDelete  bool
	dryRun         bool
	ignoreWarnings bool

	targetOrg string
	force     bool
	async     bool
	wait      time.Duration

	env envFlagValues
}

var deployFlags deployFlagValues

var deployCmd = &cobra.Command{
	Use:   "deploy <path>",
	Short: "Deploy source to an org",
	Long: `Deploy converts the components under <path> to metadata format, submits
them as one zip and waits for the deploy to finish.

Deletions are read from destructive manifests. A deploy that deletes
components asks you to type the target org name first; --force replaces
the prompt with a short countdown.

While waiting, Ctrl+C cancels the deploy on the server and q stops waiting
without canceling. Use 'sfmeta cancel <job-id>' to cancel a deploy started
with --async.

Examples:
  sfmeta deploy force-app
  sfmeta deploy force-app --test-level RunLocalTests --wait 30m
  sfmeta deploy force-app --manifest manifest/package.xml \
    --post-destructive manifest/destructiveChangesPost.xml --purge-on-delete`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDirectories,
	RunE:              runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVarP(&deployFlags.manifest, "manifest", "x", "",
		"Deploy only the components listed in this package.xml")
	deployCmd.Flags().StringVar(&deployFlags.preDestructive, "pre-destructive", "",
		"Manifest of components to delete before the deploy")
	deployCmd.Flags().StringVar(&deployFlags.postDestructive, "post-destructive", "",
		"Manifest of components to delete after the deploy")

	deployCmd.Flags().StringVarP(&deployFlags.testLevel, "test-level", "l", "",
		"Apex tests to run: NoTestRun, RunSpecifiedTests, RunLocalTests, RunAllTestsInOrg, RunRelevantTests")
	deployCmd.Flags().StringSliceVarP(&deployFlags.runTests, "run-tests", "t", nil,
		"Test classes to run with --test-level RunSpecifiedTests")
	deployCmd.Flags().BoolVar(&deployFlags.purgeOnDelete, "purge-on-delete", false,
		"Delete components permanently instead of moving them to the recycle bin")
	deployCmd.Flags().BoolVar(&deployFlags.dryRun, "dry-run", false,
		"Validate the deploy without saving it to the org")
	deployCmd.Flags().BoolVar(&deployFlags.ignoreWarnings, "ignore-warnings", false,
		"Do not fail the deploy on warnings")

	deployCmd.Flags().StringVar(&deployFlags.targetOrg, "target-org", "",
		"Name of the org shown in prompts (default: the instance URL)")
	deployCmd.Flags().BoolVarP(&deployFlags.force, "force", "f", false,
		"Skip the interactive confirmation for destructive deploys")
	deployCmd.Flags().BoolVar(&deployFlags.async, "async", false,
		"Print the job id and return without waiting")
	deployCmd.Flags().DurationVarP(&deployFlags.wait, "wait", "w", sfmeta.DefaultPollingTimeout,
		"How long to wait for the deploy to finish\n"+
			"Examples: 10m, 1h30m")

	addEnvFlags(deployCmd, &deployFlags.env)

	_ = deployCmd.RegisterFlagCompletionFunc("test-level", completeTestLevels)
}

// buildDeployOptions maps flags onto the metadata API options.
func buildDeployOptions() sfmeta.DeployOptions {
	opts := sfmeta.DefaultDeployOptions()
	opts.TestLevel = sfmeta.TestLevel(deployFlags.testLevel)
	opts.RunTests = deployFlags.runTests
	opts.PurgeOnDelete = deployFlags.purgeOnDelete
	opts.CheckOnly = deployFlags.dryRun
	opts.IgnoreWarnings = deployFlags.ignoreWarnings
	return opts
}

// buildDeploySet resolves what to deploy and marks destructive manifest
// entries for deletion.
func buildDeploySet(s *session, sourcePath string) (*components.ComponentSet, error) {
	if deployFlags.manifest != "" {
		set, err := resolve.FromManifest(resolve.ManifestOptions{
			ManifestPath:       deployFlags.manifest,
			DestructivePre:     deployFlags.preDestructive,
			DestructivePost:    deployFlags.postDestructive,
			ResolveSourcePaths: []string{sourcePath},
			ProjectDir:         s.settings.ProjectDir,
			Registry:           registry.Default(),
		})
		if err != nil {
			return nil, err
		}
		return s.adoptVersions(set), nil
	}

	set, err := resolveComponents(s, sourcePath, "")
	if err != nil {
		return nil, err
	}

	mr := resolve.NewManifestResolver(set.Registry(), nil)
	phases := []struct {
		phase sfmeta.DestructiveChangesType
		path  string
	}{
		{sfmeta.DestructivePre, deployFlags.preDestructive},
		{sfmeta.DestructivePost, deployFlags.postDestructive},
	}
	for _, p := range phases {
		if p.path == "" {
			continue
		}
		res, err := mr.Resolve(p.path)
		if err != nil {
			return nil, err
		}
		for _, c := range res.Components {
			set.Add(c, p.phase)
		}
	}
	return set, nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	s, err := newSession(cmd, sourcePath)
	if err != nil {
		return err
	}
	if err := s.useVars(deployFlags.env); err != nil {
		return err
	}

	set, err := buildDeploySet(s, sourcePath)
	if err != nil {
		return err
	}
	if set.Size() == 0 && !set.HasDeletes() {
		return fmt.Errorf("%w: no components found under %s", sfmeta.ErrMissingComponents, sourcePath)
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}

	// Select approver implementation based on --force flag
	var approver sfmeta.Approver
	if deployFlags.force {
		approver = ui.NewForcedApprover(s.verbose)
	} else {
		approver = ui.NewInteractiveApprover(s.verbose)
	}

	target := targetName(s.settings, deployFlags.targetOrg)
	deploy := services.NewMetadataAPIDeploy(conn, services.DeployOptions{
		Components: set,
		API:        buildDeployOptions(),
		Target:     target,
	}, s.serviceOptions(services.WithApprover(approver))...)

	ctx, cancel := interruptContext(s.stderr, "deploy")
	defer cancel()

	job, err := deploy.Start(ctx)
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}
	s.logger.Verbose("Deploy job id: %s", job.ID)

	if deployFlags.async {
		fmt.Fprintln(s.stdout, job.ID)
		s.logger.Info("Deploy submitted. Cancel it with: sfmeta cancel %s", job.ID)
		return nil
	}

	result, err := awaitDeploy(ctx, s, deploy, "Deploying to "+target, deployFlags.wait)
	if result != nil && !result.Response.IsCanceled() {
		tui.RenderFileResponses(s.stdout, "Deployed Source", result.GetFileResponses())
	}
	return err
}

// awaitDeploy polls d under the progress display. The result is returned
// whenever the job reached a terminal state, even if it failed.
func awaitDeploy(ctx context.Context, s *session, d *services.MetadataAPIDeploy, title string, wait time.Duration) (*services.DeployResult, error) {
	onCancel := func() {
		go func() {
			if err := d.Cancel(ctx); err != nil {
				s.logger.Warn("Failed to cancel deploy %s: %v", d.ID(), err)
			}
		}()
	}

	var result *services.DeployResult
	err := s.progress(ctx, title, onCancel, func(ctx context.Context, report func(string)) (string, error) {
		d.OnUpdate(func(st sfmeta.DeployStatus) { report(tui.DeployStatusLine(st)) })
		r, err := d.PollStatus(ctx, transfer.PollingOptions{Timeout: wait})
		if err != nil {
			return "", err
		}
		result = r
		return deployOutcome(r.Response)
	})
	return result, err
}

func deployOutcome(st sfmeta.DeployStatus) (string, error) {
	switch {
	case st.IsCanceled():
		return fmt.Sprintf("Deploy %s canceled", st.ID), nil
	case st.Success:
		return fmt.Sprintf("Deployed %d components (%s)", st.NumberComponentsDeployed, st.ID), nil
	}
	return "", fmt.Errorf("%w: deploy %s finished with status %s (%d component errors, %d test failures)",
		sfmeta.ErrTransferFailed, st.ID, st.Status, st.NumberComponentErrors, st.NumberTestErrors)
}
