package dispatch

// The result envelope is the one stable contract between the dispatcher and
// whatever renders results.  Every analysis call returns it, regardless of
// which external target was invoked and regardless of outcome.  Exactly one
// of Data/Error is populated.

const (
	successMessage = "Analysis completed successfully"
	failureMessage = "An error occurred while processing the request"
)

// Result is the normalized analysis envelope.  Data holds the remote
// service's JSON as an opaque value on success and is null on failure.
// Error maps a logical form field to a human-readable reason.
type Result struct {
	Message string            `json:"message"`
	Data    any               `json:"data"`
	Error   map[string]string `json:"error"`
}

// Succeed wraps a parsed remote response in a success envelope.
func Succeed(data any) Result {
	return Result{
		Message: successMessage,
		Data:    data,
		Error:   map[string]string{},
	}
}

// Failed builds a failure envelope with the underlying reason keyed by the
// logical form field it concerns ("file" for uploads, "payload" for JSON
// submissions).
func Failed(field string, err error) Result {
	return Result{
		Message: failureMessage,
		Data:    nil,
		Error:   map[string]string{field: err.Error()},
	}
}
