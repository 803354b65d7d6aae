package httphandler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/reviewchecker/internal/application"
	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// serviceName identifies this process in the liveness probe.
const serviceName = "code-review-checker"

// maxCheckBodyBytes bounds the JSON body of a check-state update.
const maxCheckBodyBytes = 4 << 10

// CheckManager is the check-state surface the API needs.
type CheckManager interface {
	Get(ctx context.Context, prNumber int, commentID string) (model.CheckState, error)
	Set(ctx context.Context, prNumber int, commentID string, isChecked bool) (*model.CommentCheck, error)
	Clear(ctx context.Context, prNumber int, commentID string) error
	GetAllChecked(ctx context.Context, prNumber int) (map[string]model.CheckState, error)
}

// ReplyPoster posts replies to review comments.
type ReplyPoster interface {
	AddReply(ctx context.Context, prNumber int, commentID, body string) (*model.CreatedReply, error)
}

// ReadinessProber reports whether stateful dependencies are reachable.
type ReadinessProber interface {
	Readiness(ctx context.Context) application.ReadinessReport
}

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	checks         CheckManager
	replies        ReplyPoster
	readiness      ReadinessProber
	renderMarkdown func(string) string
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. renderMarkdown
// turns a posted reply body into sanitized HTML for the response.
func NewHandler(
	checks CheckManager,
	replies ReplyPoster,
	readiness ReadinessProber,
	renderMarkdown func(string) string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		checks:         checks,
		replies:        replies,
		readiness:      readiness,
		renderMarkdown: renderMarkdown,
		logger:         logger,
	}
}

// RegisterAPIRoutes registers the JSON API and the legacy aliases on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/ready", h.Ready)

	mux.HandleFunc("POST /api/pr/{number}/reply", h.AddReply)

	mux.HandleFunc("GET /api/pr/{number}/comments/{commentID}/check", h.GetCheck)
	mux.HandleFunc("POST /api/pr/{number}/comments/{commentID}/check", h.SetCheck)
	mux.HandleFunc("DELETE /api/pr/{number}/comments/{commentID}/check", h.ClearCheck)
	mux.HandleFunc("GET /api/pr/{number}/comments/checks", h.ListChecks)

	// Legacy paths.
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /pr/{number}/reply", h.AddReply)
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: serviceName})
}

// Ready probes the database and cache. It responds 503 when any probe fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.readiness.Readiness(r.Context())
	if !report.Ready {
		h.logger.Warn("readiness probe failed", "checks", report.Checks)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Data: report, Error: "not ready"})
		return
	}
	writeData(w, report)
}

// AddReply posts a reply to a review comment. It reads the form fields
// comment_id and body.
func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	number, ok := h.prNumber(w, r)
	if !ok {
		return
	}

	commentID := r.FormValue("comment_id")
	body := r.FormValue("body")

	reply, err := h.replies.AddReply(r.Context(), number, commentID, body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeData(w, toReplyResponse(*reply, h.renderMarkdown(reply.Body)))
}

// GetCheck returns a comment's check state; an unknown comment is unchecked.
func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	number, ok := h.prNumber(w, r)
	if !ok {
		return
	}

	state, err := h.checks.Get(r.Context(), number, r.PathValue("commentID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeData(w, toCheckStateResponse(state))
}

// SetCheck records a comment's check state. The optional JSON body
// {"is_checked": bool} defaults to true.
func (h *Handler) SetCheck(w http.ResponseWriter, r *http.Request) {
	number, ok := h.prNumber(w, r)
	if !ok {
		return
	}

	check, err := h.checks.Set(r.Context(), number, r.PathValue("commentID"), readIsChecked(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeData(w, toCheckRecordResponse(*check))
}

// ClearCheck removes a comment's check state.
func (h *Handler) ClearCheck(w http.ResponseWriter, r *http.Request) {
	number, ok := h.prNumber(w, r)
	if !ok {
		return
	}

	if err := h.checks.Clear(r.Context(), number, r.PathValue("commentID")); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "check state cleared"})
}

// ListChecks returns every checked comment on the PR, keyed by comment id.
func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	number, ok := h.prNumber(w, r)
	if !ok {
		return
	}

	states, err := h.checks.GetAllChecked(r.Context(), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make(map[string]CheckStateResponse, len(states))
	for id, s := range states {
		resp[id] = toCheckStateResponse(s)
	}

	writeData(w, resp)
}

// prNumber parses the {number} path value, writing a 400 on failure.
func (h *Handler) prNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err == nil {
		_, err = application.ValidatePRNumber(number)
	}
	if err != nil {
		h.fail(w, r, apperrors.Validation("pr_number", "PR number must be a positive integer"))
		return 0, false
	}
	return number, true
}

// fail logs err and writes the failure envelope. Validation and not-found
// errors carry their own message; everything else is replaced by a generic
// one.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)

	attrs := []any{
		"request_id", RequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindNotFound:
		h.logger.Warn("request rejected", attrs...)
	default:
		h.logger.Error("request failed", attrs...)
	}

	writeError(w, status, message)
}

// readIsChecked reads is_checked from a JSON body. Anything other than a
// well-formed JSON body with a boolean is_checked yields true.
func readIsChecked(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return true
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCheckBodyBytes))
	if err != nil || len(raw) == 0 {
		return true
	}

	var req struct {
		IsChecked *bool `json:"is_checked"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.IsChecked == nil {
		return true
	}
	return *req.IsChecked
}
