// Package dispatch implements the request dispatcher that forwards patient
// submissions to external diagnostic services and normalizes whatever comes
// back into a single result envelope.  The dispatcher is stateless: one
// call, at most one outbound request, no retries.
package dispatch

import (
	"strconv"
	"strings"
)

// InputKind says what a target accepts: a single uploaded file or a
// structured JSON payload.
type InputKind int

const (
	// InputFile targets take a multipart upload (images, .edf, PDF).
	InputFile InputKind = iota
	// InputJSON targets take an application/json body.
	InputJSON
)

// String names the kind for API responses and logs.
func (k InputKind) String() string {
	if k == InputJSON {
		return "json"
	}
	return "file"
}

// Target describes one external diagnostic capability: where to reach it
// and what it accepts.  Targets are static configuration assembled at
// startup and never persisted.
type Target struct {
	Name       string    // registry key, also the {target} path segment
	Host       string    // bare host or a fully qualified base URL
	Port       int       // optional port, ignored when Host carries a scheme
	Path       string    // optional endpoint path segment
	Kind       InputKind // file upload vs JSON payload
	MediaTypes []string  // accepted media types for file targets
	Extensions []string  // extra accepted filename extensions (e.g. ".edf")
}

// URL resolves the target's dispatch address.
func (t Target) URL() string {
	return ComposeURL(t.Host, t.Port, t.Path)
}

// Accepts reports whether an upload with the given media type and filename
// is in the target's accepted set.  Media types are matched without
// parameters and case-insensitively; extensions cover formats browsers
// upload without a useful content type (EEG .edf files arrive as
// application/octet-stream).
func (t Target) Accepts(mediaType, filename string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	for _, m := range t.MediaTypes {
		if mt == m {
			return true
		}
	}
	name := strings.ToLower(filename)
	for _, ext := range t.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ComposeURL turns a (host, port, path) triple into a fully qualified URL.
// The rule is total: every combination of present/absent port and path is
// defined.
//
//   - A host containing "://" is already a fully qualified base URL; the
//     port is ignored and only the path is joined.
//   - Otherwise the scheme defaults to http and ":port" is appended when
//     the port is non-zero.
//   - The path is joined with exactly one "/" regardless of how the parts
//     are written; an empty path appends nothing.
func ComposeURL(host string, port int, path string) string {
	base := strings.TrimRight(host, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
		if port > 0 {
			base += ":" + strconv.Itoa(port)
		}
	}
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
