package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/internal/tui"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type cancelFlagValues struct {
	async bool
	wait  time.Duration
}

var cancelFlags cancelFlagValues

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a deploy in progress",
	Long: `Cancel asks the org to stop a deploy and waits until the org reports it
canceled. A deploy that finishes before the request takes effect is
reported as a failure to cancel.

Examples:
  sfmeta cancel 0Af5g00000ABCDEFG
  sfmeta cancel 0Af5g00000ABCDEFG --async`,
	Args: RequireJobID,
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().BoolVar(&cancelFlags.async, "async", false,
		"Request the cancel and return without waiting")
	cancelCmd.Flags().DurationVarP(&cancelFlags.wait, "wait", "w", 10*time.Minute,
		"How long to wait for the cancel to take effect")
}

func runCancel(cmd *cobra.Command, args []string) error {
	id := args[0]
	s, err := newSession(cmd, ".")
	if err != nil {
		return err
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	deploy := services.NewMetadataAPIDeploy(conn, services.DeployOptions{}, s.serviceOptions(services.WithJobID(id))...)

	ctx, cancel := interruptContext(s.stderr, "cancel")
	defer cancel()

	if err := deploy.Cancel(ctx); err != nil {
		return fmt.Errorf("failed to cancel deploy %s: %w", id, err)
	}
	if cancelFlags.async {
		s.logger.Info("Cancel requested for deploy %s", id)
		return nil
	}

	return s.progress(ctx, "Canceling deploy "+id, nil, func(ctx context.Context, report func(string)) (string, error) {
		deploy.OnUpdate(func(st sfmeta.DeployStatus) { report(tui.DeployStatusLine(st)) })
		r, err := deploy.PollStatus(ctx, transfer.PollingOptions{Timeout: cancelFlags.wait})
		if err != nil {
			return "", err
		}
		if !r.Response.IsCanceled() {
			return "", fmt.Errorf("%w: deploy %s finished with status %s before it could be canceled",
				sfmeta.ErrTransferFailed, id, r.Response.Status)
		}
		return fmt.Sprintf("Deploy %s canceled", id), nil
	})
}
