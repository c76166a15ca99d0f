package sfmeta

import "context"

// RemoteMetadataService is the wire client for the asynchronous metadata API.
// Every call may fail with a transport-level error; callers classify those
// with an ErrorClassifier.
type RemoteMetadataService interface {
	// Deploy submits a zip payload and returns the async job handle.
	Deploy(ctx context.Context, zipFile []byte, opts DeployOptions) (AsyncResult, error)

	// CheckDeployStatus returns the current state of a deploy job.
	CheckDeployStatus(ctx context.Context, id string, includeDetails bool) (DeployStatus, error)

	// CancelDeploy requests server-side cancellation. The final state is only
	// observable through a later CheckDeployStatus call.
	CancelDeploy(ctx context.Context, id string) (AsyncResult, error)

	// Retrieve submits a retrieve request and returns the async job handle.
	Retrieve(ctx context.Context, req RetrieveRequest) (AsyncResult, error)

	// CheckRetrieveStatus returns the current state of a retrieve job.
	// On success the status carries the base64-encoded zip payload.
	CheckRetrieveStatus(ctx context.Context, id string, includeZip bool) (RetrieveStatus, error)

	// RetrieveMaxAPIVersion returns the highest API version the org supports.
	RetrieveMaxAPIVersion(ctx context.Context) (string, error)

	// APIVersion returns the version used for subsequent calls.
	APIVersion() string

	// SetAPIVersion changes the version used for subsequent calls.
	SetAPIVersion(version string)
}
