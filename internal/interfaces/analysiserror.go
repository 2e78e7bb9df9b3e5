package interfaces

import "fmt"

// AnalysisErrorKind classifies analyst failures so callers can surface them
// to metrics and logs instead of swallowing an opaque error.
type AnalysisErrorKind string

const (
	// AnalysisErrUnavailable: the collaborator cannot be reached or is not
	// configured (missing credential, dial failure).
	AnalysisErrUnavailable AnalysisErrorKind = "unavailable"
	// AnalysisErrTransport: the request was sent but failed in flight
	// (timeout, non-2xx status).
	AnalysisErrTransport AnalysisErrorKind = "transport"
	// AnalysisErrBadResponse: the collaborator answered but the payload did
	// not match the signal contract.
	AnalysisErrBadResponse AnalysisErrorKind = "bad_response"
)

// AnalysisError wraps an analyst failure with its kind.
type AnalysisError struct {
	Kind AnalysisErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
