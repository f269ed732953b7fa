package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lostserver/diagnostic-gateway/internal/dispatch"
	"github.com/lostserver/diagnostic-gateway/internal/middleware"
	"github.com/lostserver/diagnostic-gateway/internal/presenter"
	"github.com/lostserver/diagnostic-gateway/internal/queue"
	"github.com/lostserver/diagnostic-gateway/internal/repository"
	queue_publisher "github.com/lostserver/diagnostic-gateway/internal/service"
	"github.com/lostserver/diagnostic-gateway/internal/validation"
)

// AnalysisHandler owns POST /analysis/{target}: it validates the
// submission, hands it to the dispatcher and always answers with the
// result envelope.  Whatever happens remotely, the caller gets
// {message, data, error} back.
type AnalysisHandler struct {
	Dispatcher *dispatch.Dispatcher
	Reports    repository.ReportStore
}

func NewAnalysisHandler(d *dispatch.Dispatcher, reports repository.ReportStore) *AnalysisHandler {
	return &AnalysisHandler{Dispatcher: d, Reports: reports}
}

// Analyze handles one analysis submission.  Upload targets take a
// multipart body with a single "file" field; JSON targets a structured
// body validated per target before anything is dispatched.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	name := c.Param("target")
	target, ok := h.Dispatcher.Target(name)
	if !ok {
		err := &dispatch.Error{Kind: dispatch.KindUnknownTarget}
		return c.JSON(http.StatusNotFound, dispatch.Failed("target", err))
	}

	requestID := uuid.NewString()
	started := time.Now()

	var data any
	var err error
	field := "file"
	if target.Kind == dispatch.InputJSON {
		field = "payload"
		data, err = h.analyzeJSON(c, requestID, target)
	} else {
		data, err = h.analyzeFile(c, requestID, target)
	}

	h.publishEvent(requestID, target.Name, middleware.UserID(c), err, time.Since(started))

	if err != nil {
		return c.JSON(statusFor(err), dispatch.Failed(field, err))
	}

	result := dispatch.Succeed(data)
	if target.Name == "report" {
		h.saveReport(c, target.Name, result)
	}
	if c.QueryParam("view") == "display" {
		result.Data = presentData(target.Name, data)
	}
	return c.JSON(http.StatusOK, result)
}

// presentData reshapes the opaque remote payload into the normalized
// display form: ordered sections for the prediction-style services, a
// structured document for the report service.
func presentData(targetName string, data any) any {
	if targetName == "report" {
		if m, ok := data.(map[string]any); ok {
			if text, ok := m["response"].(string); ok {
				return presenter.ParseReport(text)
			}
		}
	}
	return presenter.Present(data)
}

// targetInfo is one entry of the target listing: what a target is called
// and what it accepts.  Addresses stay internal.
type targetInfo struct {
	Name       string   `json:"name"`
	Input      string   `json:"input"`
	MediaTypes []string `json:"mediaTypes,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// ListTargets handles GET /analysis/targets: the registry of diagnosis
// targets the gateway can dispatch to, so clients can build their forms
// from the deployment's actual configuration.
func (h *AnalysisHandler) ListTargets(c echo.Context) error {
	infos := []targetInfo{}
	for _, t := range h.Dispatcher.Targets() {
		infos = append(infos, targetInfo{
			Name:       t.Name,
			Input:      t.Kind.String(),
			MediaTypes: t.MediaTypes,
			Extensions: t.Extensions,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "targets": infos})
}

// analyzeFile extracts and bounds the uploaded file, then dispatches it.
func (h *AnalysisHandler) analyzeFile(c echo.Context, requestID string, target dispatch.Target) (any, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Upload a valid file")}
	}
	// The declared size is checked before the file is even read so an
	// oversized upload costs neither memory nor a network call.
	if fh.Size > dispatch.MaxUploadBytes {
		return nil, &dispatch.Error{Kind: dispatch.KindFileTooLarge}
	}
	src, err := fh.Open()
	if err != nil {
		return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Upload a valid file")}
	}
	defer func() { _ = src.Close() }()

	buf, err := io.ReadAll(io.LimitReader(src, dispatch.MaxUploadBytes+1))
	if err != nil {
		return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Could not read uploaded file")}
	}

	up := dispatch.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        buf,
	}
	return h.Dispatcher.SendFile(c.Request().Context(), requestID, target, up)
}

// analyzeJSON validates the structured payload for the target and
// dispatches it.  Each JSON target has its own shape; nothing leaves the
// gateway until the shape checks pass.
func (h *AnalysisHandler) analyzeJSON(c echo.Context, requestID string, target dispatch.Target) (any, error) {
	switch target.Name {
	case "symptoms":
		var p validation.SymptomPayload
		if err := c.Bind(&p); err != nil {
			return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Invalid request body")}
		}
		if err := p.Validate(); err != nil {
			return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: err}
		}
		return h.Dispatcher.SendJSON(c.Request().Context(), requestID, target, p)
	case "bone":
		var p validation.BonePayload
		if err := c.Bind(&p); err != nil {
			return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Invalid request body")}
		}
		if err := p.Validate(); err != nil {
			return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: err}
		}
		return h.Dispatcher.SendJSON(c.Request().Context(), requestID, target, p.Remap())
	default:
		var p map[string]any
		if err := c.Bind(&p); err != nil {
			return nil, &dispatch.Error{Kind: dispatch.KindInvalidPayload, Err: errors.New("Invalid request body")}
		}
		return h.Dispatcher.SendJSON(c.Request().Context(), requestID, target, p)
	}
}

// saveReport persists a successful report analysis for the signed-in user.
// Anonymous submissions are analyzed but not stored; storage failures are
// logged and never fail the request.
func (h *AnalysisHandler) saveReport(c echo.Context, targetName string, result dispatch.Result) {
	userID := middleware.UserID(c)
	if userID == "" || h.Reports == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Reports.Save(ctx, userID, targetName, string(raw)); err != nil {
		log.Printf("analysis: save report failed for user=%s: %v", userID, err)
	}
}

// publishEvent emits the audit event for a finished dispatch.  Publishing
// is fire-and-forget: the broker being down never fails an analysis.
func (h *AnalysisHandler) publishEvent(requestID, target, userID string, err error, took time.Duration) {
	status := "ok"
	httpStatus := 0
	if err != nil {
		status = dispatch.KindOf(err).String()
		var de *dispatch.Error
		if errors.As(err, &de) {
			httpStatus = de.Status
		}
	}
	ev := queue.AnalysisCompletedEvent{
		RequestID:   requestID,
		Target:      target,
		UserID:      userID,
		Status:      status,
		HTTPStatus:  httpStatus,
		DurationMS:  took.Milliseconds(),
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishAnalysisCompleted(ctx, ev)
	}()
}

// statusFor maps a dispatch failure onto an HTTP status.  Local validation
// problems are the caller's fault (400); anything that went wrong on or
// toward the remote service is a bad gateway (502).  The envelope carries
// the specifics either way.
func statusFor(err error) int {
	switch dispatch.KindOf(err) {
	case dispatch.KindFileTooLarge, dispatch.KindUnsupportedFileType, dispatch.KindInvalidPayload:
		return http.StatusBadRequest
	case dispatch.KindRemoteTimeout:
		return http.StatusGatewayTimeout
	case dispatch.KindRemoteRejected, dispatch.KindTransport, dispatch.KindMalformedResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
