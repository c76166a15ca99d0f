// Package retry provides automatic retry logic with exponential backoff
// for transient metadata API failures.
//
// The package supports pluggable error classification and backoff strategies.
// The transfer engine only uses the classifier, counting tolerated polling
// errors against its own budget; the remote client wraps job submissions in
// an Executor.
//
// # Example Usage
//
//	classifier := retry.NewMetadataErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    id, err = client.Deploy(ctx, zip, opts)
//	    return err
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient (retryable)
// versus fatal (non-retryable). The MetadataErrorClassifier recognizes network
// failures, malformed JSON bodies and the gateway and cursor-expiry messages
// the metadata API is known to return under load.
//
// # Backoff
//
// ExponentialBackoff grows the wait per retry up to a cap. When the failed
// call's error reports a Retry-After wait (see RetryAfterError), the
// executor waits that long instead, still bounded by the cap.
package retry
