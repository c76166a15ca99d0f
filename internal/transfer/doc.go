// Package transfer implements the lifecycle shared by metadata deploys and
// retrieves: submit a job, poll its status until it is done, then convert the
// terminal status into a result.
//
// The job-specific steps are supplied by an Operation. A Transfer moves
// through NotStarted, Started and Polling and ends in Finished, Canceled or
// Failed. Consumers observe progress through OnUpdate, OnFinish, OnCancel and
// OnError listeners.
//
// Transient status check failures, as judged by the configured
// sfmeta.ErrorClassifier, are tolerated until a consecutive error budget is
// exhausted, at which point a RetryLimitError stops polling.
package transfer
