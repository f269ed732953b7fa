package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"time"
)

// MaxUploadBytes caps uploaded file size.  The check runs before any
// request body is assembled, so a doomed upload never leaves the process.
const MaxUploadBytes = 15_000_000

// uploadFieldName is the canonical multipart field carrying the file on the
// outbound request.  Every diagnostic service reads this one field.
const uploadFieldName = "file"

// rejectionSnippetLimit bounds how much of a non-2xx response body is kept
// as diagnostic text.
const rejectionSnippetLimit = 512

// Upload is one submitted file, held in memory for the duration of a single
// dispatch call.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Dispatcher forwards submissions to external diagnostic services.  It is
// safe for concurrent use and holds no per-request state.
type Dispatcher struct {
	targets map[string]Target
	client  *http.Client
	timeout time.Duration
}

// New builds a Dispatcher over the given target registry.  The timeout
// bounds each outbound call; external ML services are slow, so callers
// should configure this generously (the default deployment uses 60s).
func New(targets map[string]Target, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Dispatcher{
		targets: targets,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Target looks up a target by name.
func (d *Dispatcher) Target(name string) (Target, bool) {
	t, ok := d.targets[name]
	return t, ok
}

// Targets returns the registry (for enumeration in handlers and tests).
func (d *Dispatcher) Targets() map[string]Target { return d.targets }

// ValidateUpload checks an upload against the target's constraints without
// touching the network.  Size is checked first: an oversized file is
// rejected even if its type is also wrong.
func ValidateUpload(t Target, up Upload) error {
	if len(up.Data) > MaxUploadBytes {
		return &Error{Kind: KindFileTooLarge}
	}
	if !t.Accepts(up.ContentType, up.Filename) {
		return &Error{Kind: KindUnsupportedFileType}
	}
	return nil
}

// SendFile validates the upload, builds a multipart request and dispatches
// it to the target.  requestID correlates the outbound call with the
// gateway's own logs and events via the X-Request-ID header.
func (d *Dispatcher) SendFile(ctx context.Context, requestID string, t Target, up Upload) (any, error) {
	if err := ValidateUpload(t, up); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(uploadFieldName, up.Filename)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}

	return d.send(ctx, requestID, t, &body, mw.FormDataContentType())
}

// SendJSON marshals the payload and dispatches it to the target with an
// application/json content type.  Payload shape validation is the caller's
// job; by the time a payload reaches here it is ready to leave the process.
func (d *Dispatcher) SendJSON(ctx context.Context, requestID string, t Target, payload any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindInvalidPayload, Err: err}
	}
	return d.send(ctx, requestID, t, bytes.NewReader(raw), "application/json")
}

// send performs the one outbound call and classifies the outcome.  The
// dispatch context is detached from the caller's: a client disconnect must
// not abort inference that is already running remotely, so only the
// dispatcher's own deadline applies.
func (d *Dispatcher) send(ctx context.Context, requestID string, t Target, body io.Reader, contentType string) (any, error) {
	url := t.URL()
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, url, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.Printf("dispatch: target=%s request_id=%s timed out after %s", t.Name, requestID, time.Since(started).Round(time.Millisecond))
			return nil, &Error{Kind: KindRemoteTimeout, Err: err}
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, rejectionSnippetLimit))
		log.Printf("dispatch: target=%s request_id=%s rejected with status %d", t.Name, requestID, resp.StatusCode)
		return nil, &Error{Kind: KindRemoteRejected, Status: resp.StatusCode, Body: string(snippet)}
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Err: err}
	}
	return data, nil
}

// isTimeout distinguishes deadline expiry from other transport failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
