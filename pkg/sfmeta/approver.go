package sfmeta

import "context"

// Approver handles user interaction for approval workflows,
// particularly for deploys that delete components from an org.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to confirm by typing the target name
type Approver interface {
	// RequestApproval prompts for confirmation before a destructive deploy.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - target: Name of the org or package being modified
	//   - deletions: Human-readable list of components that will be deleted
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, target string, deletions []string) (bool, error)
}
