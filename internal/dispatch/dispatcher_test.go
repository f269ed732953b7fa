package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget(t *testing.T, srv *httptest.Server) Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return Target{
		Name:       "tb",
		Host:       u.Hostname() + ":" + u.Port(),
		Path:       "/tb",
		Kind:       InputFile,
		MediaTypes: []string{"image/jpeg", "image/png"},
	}
}

func newDispatcher(t Target, timeout time.Duration) *Dispatcher {
	return New(map[string]Target{t.Name: t}, timeout)
}

func TestSendFileSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err, "outbound request must carry the canonical file field")
		defer f.Close()
		assert.Equal(t, "xray.png", hdr.Filename)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"prediction": "Normal", "confidence": 97.2})
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, time.Second)

	data, err := d.SendFile(context.Background(), "req-1", tgt, Upload{
		Filename:    "xray.png",
		ContentType: "image/png",
		Data:        []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)

	m, ok := data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Normal", m["prediction"])
}

func TestSendFileRemoteRejectedPreservesStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, time.Second)

	_, err := d.SendFile(context.Background(), "req-2", tgt, Upload{
		Filename: "xray.png", ContentType: "image/png", Data: []byte{1},
	})
	require.Error(t, err)

	de, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindRemoteRejected, de.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, de.Status)
	assert.Contains(t, de.Body, "model not loaded")
}

func TestSendFileMalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>Internal Server Error</html>"))
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, time.Second)

	_, err := d.SendFile(context.Background(), "req-3", tgt, Upload{
		Filename: "xray.jpg", ContentType: "image/jpeg", Data: []byte{1},
	})
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestSendFileTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, 50*time.Millisecond)

	_, err := d.SendFile(context.Background(), "req-4", tgt, Upload{
		Filename: "xray.jpg", ContentType: "image/jpeg", Data: []byte{1},
	})
	assert.Equal(t, KindRemoteTimeout, KindOf(err))
}

func TestSendFileTransportError(t *testing.T) {
	t.Parallel()

	// Nothing listens here.
	tgt := Target{Name: "tb", Host: "127.0.0.1", Port: 1, Path: "/tb", MediaTypes: []string{"image/jpeg"}}
	d := newDispatcher(tgt, time.Second)

	_, err := d.SendFile(context.Background(), "req-5", tgt, Upload{
		Filename: "xray.jpg", ContentType: "image/jpeg", Data: []byte{1},
	})
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestOversizedUploadNeverReachesNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, time.Second)

	_, err := d.SendFile(context.Background(), "req-6", tgt, Upload{
		Filename:    "huge.png",
		ContentType: "image/png",
		Data:        make([]byte, MaxUploadBytes+1),
	})
	assert.Equal(t, KindFileTooLarge, KindOf(err))
	assert.Zero(t, hits.Load(), "oversized upload must be rejected before any network call")
}

func TestUnsupportedTypeRejectedLocally(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	d := newDispatcher(tgt, time.Second)

	_, err := d.SendFile(context.Background(), "req-7", tgt, Upload{
		Filename: "report.pdf", ContentType: "application/pdf", Data: []byte{1},
	})
	assert.Equal(t, KindUnsupportedFileType, KindOf(err))
	assert.Zero(t, hits.Load())
}

func TestSendJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(44), body["Age"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"risk":"low"}`))
	}))
	defer srv.Close()

	tgt := testTarget(t, srv)
	tgt.Kind = InputJSON
	d := newDispatcher(tgt, time.Second)

	data, err := d.SendJSON(context.Background(), "req-8", tgt, map[string]any{"Age": 44, "SEX": "M"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"risk": "low"}, data)
}

func TestEnvelope(t *testing.T) {
	t.Parallel()

	ok := Succeed(map[string]any{"prediction": "Anemic"})
	assert.Equal(t, "Analysis completed successfully", ok.Message)
	assert.NotNil(t, ok.Data)
	assert.Empty(t, ok.Error)

	bad := Failed("file", &Error{Kind: KindFileTooLarge})
	assert.Equal(t, "An error occurred while processing the request", bad.Message)
	assert.Nil(t, bad.Data)
	assert.Equal(t, "file size must be less than 15MB", bad.Error["file"])
}
