package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

const dangerBanner = `
  ██████   DANGER: DESTRUCTIVE DEPLOY
  ██  ██   Components will be deleted from %s
  ██████
`

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after the countdown,
// used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) sfmeta.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval lists the deletions, counts down and then approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, target string, deletions []string) (bool, error) {
	fmt.Fprintln(a.output)
	color.New(color.FgRed, color.Bold).Fprintf(a.output, dangerBanner, target)
	printDeletions(a.output, deletions, a.verbose)
	fmt.Fprintln(a.output)

	countdownSeconds := int(sfmeta.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(a.output)
			return false, err
		}
		fmt.Fprintf(a.output, "\rDeploying in: %d seconds... (Press Ctrl+C to cancel)", i)
		a.sleepFn(time.Second)
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with destructive deploy to %s...                    \n", target)
	return true, nil
}

// printDeletions lists what will be deleted. Long lists are cut to a
// summary unless verbose.
func printDeletions(w io.Writer, deletions []string, verbose bool) {
	const shown = 10
	list := deletions
	if !verbose && len(list) > shown {
		list = list[:shown]
	}
	for _, d := range list {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	if rest := len(deletions) - len(list); rest > 0 {
		fmt.Fprintf(w, "  ... and %d more (use --verbose to list all)\n", rest)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ sfmeta.Approver = (*ForcedApprover)(nil)
