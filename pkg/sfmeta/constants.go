package sfmeta

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Operation completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Failed to reach the metadata service
	ExitApprovalDenied   = 12 // User denied a destructive deploy
	ExitTransferFailed   = 13 // Deploy or retrieve failed
	ExitConversionFailed = 14 // Conversion pipeline failed
	ExitTimeout          = 15 // Polling timed out before the job finished
)

const (
	// DefaultAPIVersion is the last-resort metadata API version.
	DefaultAPIVersion = "58.0"

	// DefaultPollingTimeout bounds PollStatus when no timeout is given.
	DefaultPollingTimeout = 60 * time.Minute

	// DefaultPollErrorRetryLimit is the number of consecutive transient
	// polling errors tolerated before giving up.
	DefaultPollErrorRetryLimit = 1000

	// DefaultDeploySizeThreshold is the percentage of MaxDeployZipBytes at
	// which a size warning is emitted. Values of 100 or more disable the check.
	DefaultDeploySizeThreshold = 80

	// MaxDeployZipBytes is the metadata API limit for a deploy payload.
	MaxDeployZipBytes = 39 * 1000 * 1000

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultForceApprovalCountdown is the countdown before a forced destructive deploy proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// MetadataNamespace is the XML namespace of manifests and metadata files.
	MetadataNamespace = "http://soap.sforce.com/2006/04/metadata"

	// DefaultManifestIndentation is used by package.xml writers.
	DefaultManifestIndentation = "    "

	// ManifestFileName is the constructive manifest file name.
	ManifestFileName = "package.xml"

	// Wildcard is the member name that selects every component of a type.
	Wildcard = "*"
)

// Environment variables that tune behavior at runtime.
const (
	EnvDeploySizeThreshold     = "SF_DEPLOY_SIZE_THRESHOLD"
	EnvMDAPITempDir            = "SF_MDAPI_TEMP_DIR"
	EnvPollErrorRetryLimit     = "SF_METADATA_POLL_ERROR_RETRY_LIMIT"
	EnvApplyReplacementsOnConv = "SF_APPLY_REPLACEMENTS_ON_CONVERT"
	EnvOrgAPIVersion           = "SF_ORG_API_VERSION"
	EnvConfigDir               = "SF_CONFIG_DIR"
	EnvInstanceURL             = "SF_INSTANCE_URL"
	EnvAccessToken             = "SF_ACCESS_TOKEN"
	EnvNonInteractive          = "SFMETA_NON_INTERACTIVE"
	EnvUseProgressBar          = "SF_USE_PROGRESS_BAR"
)
