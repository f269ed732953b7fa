package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure.  The split between transport-level
// failures and remote rejections matters to callers: a rejection means the
// service saw the request and said no, a transport error means it may never
// have arrived.
type Kind int

const (
	// KindUnknownTarget: the requested target is not in the registry.
	KindUnknownTarget Kind = iota
	// KindFileTooLarge: the upload exceeds the size cap.  Checked before
	// anything is sent so oversized payloads never reach the network.
	KindFileTooLarge
	// KindUnsupportedFileType: the upload's media type is not in the
	// target's accepted set.
	KindUnsupportedFileType
	// KindInvalidPayload: a JSON payload failed target-specific validation.
	KindInvalidPayload
	// KindTransport: the outbound request failed before a status code was
	// received (connection refused, DNS, reset).
	KindTransport
	// KindRemoteTimeout: the external service did not answer within the
	// configured deadline.
	KindRemoteTimeout
	// KindRemoteRejected: the external service answered with a non-2xx
	// status.  Status and a body snippet are preserved for diagnostics.
	KindRemoteRejected
	// KindMalformedResponse: the service returned 2xx but the body was not
	// valid JSON.
	KindMalformedResponse
)

// String names the kind for logs and audit events.
func (k Kind) String() string {
	switch k {
	case KindUnknownTarget:
		return "unknown_target"
	case KindFileTooLarge:
		return "file_too_large"
	case KindUnsupportedFileType:
		return "unsupported_file_type"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindTransport:
		return "transport_error"
	case KindRemoteTimeout:
		return "remote_timeout"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindMalformedResponse:
		return "malformed_response"
	}
	return "unknown"
}

// Error is the dispatcher's failure type.  Status and Body are only set for
// KindRemoteRejected.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownTarget:
		return "unknown diagnosis target"
	case KindFileTooLarge:
		return "file size must be less than 15MB"
	case KindUnsupportedFileType:
		return "unsupported file format for this analysis"
	case KindInvalidPayload:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid payload"
	case KindTransport:
		return fmt.Sprintf("analysis service unreachable: %v", e.Err)
	case KindRemoteTimeout:
		return "analysis service timed out"
	case KindRemoteRejected:
		return fmt.Sprintf("analysis service rejected the request: status %d: %s", e.Status, e.Body)
	case KindMalformedResponse:
		return "analysis service returned an unreadable response"
	}
	return "analysis dispatch failed"
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the dispatch kind from an error, or -1 when the error did
// not originate here.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return -1
}
