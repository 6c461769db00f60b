// Package detector talks to the external detection model service.
//
// The service wraps the detection framework and exposes training,
// validation and single-image inference over HTTP. This package treats it
// as an opaque capability behind the Model interface; Client is the HTTP
// implementation. Batch inference, CSV export and per-class summaries are
// built on top of Model so they work with any implementation.
package detector
