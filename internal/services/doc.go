// Package services runs deploys and retrieves against an org's metadata API.
//
// MetadataAPIDeploy and MetadataAPIRetrieve embed a transfer.Transfer, so
// both expose Start, PollStatus, Cancel and the OnUpdate/OnFinish/OnCancel/
// OnError listeners. They differ in their job-specific steps:
//
//   - A deploy converts its component set into an in-memory zip, warns when
//     the zip nears the API size limit, asks the Approver before deleting
//     components and cancels through the API.
//   - A retrieve builds its request from the set's manifest, cancels locally
//     and writes the returned zip as source, merged source or metadata.
//
// Both go through a Connection, which clamps the API version to the org's
// maximum before each call.
package services
