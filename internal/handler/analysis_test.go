package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lostserver/diagnostic-gateway/internal/dispatch"
	"github.com/lostserver/diagnostic-gateway/internal/handler"
	"github.com/lostserver/diagnostic-gateway/internal/model"
	"github.com/lostserver/diagnostic-gateway/internal/presenter"
	"github.com/lostserver/diagnostic-gateway/internal/router"
	"github.com/lostserver/diagnostic-gateway/internal/utils"
)

func issueTestToken(userID string) (string, error) {
	return utils.IssueSessionToken(testSecret, userID, "Jane Doe", "jane@example.com", time.Hour)
}

// fakeReportStore records saved analyses in memory.
type fakeReportStore struct {
	mu    sync.Mutex
	saved []model.Report
}

func (s *fakeReportStore) Save(_ context.Context, userID, diagnosisType, report string) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, _ := primitive.ObjectIDFromHex(userID)
	r := model.Report{ID: primitive.NewObjectID(), UserID: oid, DiagnosisType: diagnosisType, Report: report}
	s.saved = append(s.saved, r)
	return r, nil
}

func (s *fakeReportStore) ListByUser(_ context.Context, userID string) ([]model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, _ := primitive.ObjectIDFromHex(userID)
	out := []model.Report{}
	for _, r := range s.saved {
		if r.UserID == oid {
			out = append(out, r)
		}
	}
	return out, nil
}

func backendTarget(t *testing.T, srv *httptest.Server, name string, kind dispatch.InputKind, mediaTypes []string) dispatch.Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return dispatch.Target{
		Name:       name,
		Host:       u.Hostname() + ":" + u.Port(),
		Kind:       kind,
		MediaTypes: mediaTypes,
	}
}

func newAnalysisServer(t *testing.T, targets map[string]dispatch.Target) (*echo.Echo, *fakeReportStore) {
	t.Helper()
	reports := &fakeReportStore{}
	d := dispatch.New(targets, time.Second)
	e := echo.New()
	router.RegisterAnalysis(e, handler.NewAnalysisHandler(d, reports), handler.NewReportHandler(reports), testSecret)
	return e, reports
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	fw, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeFileTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"Normal","confidence":96.1}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "tb", dispatch.InputFile, []string{"image/jpeg", "image/png"})
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"tb": tgt})

	body, ctype := multipartBody(t, "xray.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/analysis/tb", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env dispatch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Analysis completed successfully", env.Message)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Error)
}

func TestListTargets(t *testing.T) {
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{
		"tb":       {Name: "tb", Host: "ml.internal", Port: 5004, Path: "/tb", Kind: dispatch.InputFile, MediaTypes: []string{"image/png"}},
		"symptoms": {Name: "symptoms", Host: "https://symptoms.example.com/check", Kind: dispatch.InputJSON},
		"schizo":   {Name: "schizo", Host: "ml.internal", Port: 5001, Path: "/schizo", Kind: dispatch.InputFile, Extensions: []string{".edf"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/analysis/targets", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Targets []struct {
			Name       string   `json:"name"`
			Input      string   `json:"input"`
			MediaTypes []string `json:"mediaTypes"`
			Extensions []string `json:"extensions"`
		} `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Targets, 3)
	assert.Equal(t, "schizo", resp.Targets[0].Name)
	assert.Equal(t, "symptoms", resp.Targets[1].Name)
	assert.Equal(t, "tb", resp.Targets[2].Name)
	assert.Equal(t, "json", resp.Targets[1].Input)
	assert.Equal(t, []string{".edf"}, resp.Targets[0].Extensions)
	assert.NotContains(t, rec.Body.String(), "ml.internal", "addresses stay internal")
}

func TestAnalyzeDisplayView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"Pneumonia","overview":"Shadowing in the left lung.","confidence":88.5}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "tb", dispatch.InputFile, []string{"image/png"})
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"tb": tgt})

	body, ctype := multipartBody(t, "xray.png", "image/png", []byte{1})
	req := httptest.NewRequest(http.MethodPost, "/analysis/tb?view=display", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data presenter.Display `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data.Sections, 2)
	assert.Equal(t, "Prediction", env.Data.Sections[0].Title)
	require.NotNil(t, env.Data.Confidence)
	assert.InDelta(t, 88.5, *env.Data.Confidence, 0.001)
}

func TestAnalyzeUnknownTarget(t *testing.T) {
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{})

	req := httptest.NewRequest(http.MethodPost, "/analysis/nope", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var env dispatch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Nil(t, env.Data)
	assert.Contains(t, env.Error["target"], "unknown diagnosis target")
}

func TestAnalyzeRejectsWrongFileType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be reached for an unsupported file type")
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "tb", dispatch.InputFile, []string{"image/jpeg", "image/png"})
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"tb": tgt})

	body, ctype := multipartBody(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/analysis/tb", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env dispatch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Error["file"])
}

func TestAnalyzeMissingFile(t *testing.T) {
	tgt := dispatch.Target{Name: "tb", Host: "127.0.0.1", Port: 1, Kind: dispatch.InputFile, MediaTypes: []string{"image/png"}}
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"tb": tgt})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analysis/tb", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRemoteFailureKeepsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "anemia", dispatch.InputFile, []string{"image/png"})
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"anemia": tgt})

	body, ctype := multipartBody(t, "eye.png", "image/png", []byte{1})
	req := httptest.NewRequest(http.MethodPost, "/analysis/anemia", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var env dispatch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "An error occurred while processing the request", env.Message)
	assert.Contains(t, env.Error["file"], "status 500")
}

func TestAnalyzeSymptomsJSONTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "female", p["sex"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"diagnosis":"Migraine"}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "symptoms", dispatch.InputJSON, nil)
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"symptoms": tgt})

	// Invalid payload never reaches the backend.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analysis/symptoms", strings.NewReader(`{"sex":"female"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env dispatch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Age is required", env.Error["payload"])

	// Valid payload round-trips.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/analysis/symptoms",
		strings.NewReader(`{"age":33,"sex":"female","symptoms":[{"value":"headache","label":"Headache"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	m, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Migraine", m["diagnosis"])
}

func TestAnalyzeBoneRemapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "joint pain", p["Prob"])
		assert.Equal(t, "none", p["INJURY"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"Low risk"}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "bone", dispatch.InputJSON, nil)
	e, _ := newAnalysisServer(t, map[string]dispatch.Target{"bone": tgt})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analysis/bone",
		strings.NewReader(`{"age":61,"sex":"F","medicalProblem":"joint pain","surgeryHistory":"none","drugHistory":"calcium"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAnalyzeReportPersistsForSignedInUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"PREPARED FOR\nJane Doe"}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "report", dispatch.InputFile, []string{"image/png", "application/pdf"})
	e, reports := newAnalysisServer(t, map[string]dispatch.Target{"report": tgt})

	userID := primitive.NewObjectID().Hex()
	token, err := issueTestToken(userID)
	require.NoError(t, err)

	body, ctype := multipartBody(t, "labs.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/analysis/report", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := reports.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "report", saved[0].DiagnosisType)
	assert.Contains(t, saved[0].Report, "Jane Doe")

	// The report listing endpoint returns it.
	req = httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jane Doe")
}

func TestAnalyzeReportAnonymousNotPersisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	tgt := backendTarget(t, srv, "report", dispatch.InputFile, []string{"application/pdf"})
	e, reports := newAnalysisServer(t, map[string]dispatch.Target{"report": tgt})

	body, ctype := multipartBody(t, "labs.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/analysis/report", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	reports.mu.Lock()
	defer reports.mu.Unlock()
	assert.Empty(t, reports.saved)
}
