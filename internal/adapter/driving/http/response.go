package httphandler

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the body of every JSON API response except the health probes.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeData writes a success envelope carrying data.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// writeError writes a failure envelope with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// HealthResponse is the body of the liveness probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CheckStateResponse is the JSON representation of a comment's check state.
type CheckStateResponse struct {
	IsChecked bool    `json:"is_checked"`
	CheckedAt *string `json:"checked_at"`
}

// CheckRecordResponse is the JSON representation of a stored check record.
type CheckRecordResponse struct {
	ID        int64   `json:"id"`
	PRNumber  int     `json:"pr_number"`
	CommentID string  `json:"comment_id"`
	RepoOwner string  `json:"repo_owner"`
	RepoName  string  `json:"repo_name"`
	IsChecked bool    `json:"is_checked"`
	CheckedAt *string `json:"checked_at"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// UserResponse is the JSON representation of a GitHub account.
type UserResponse struct {
	Login     string `json:"login"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
}

// ReplyResponse is the JSON representation of a posted reply. BodyHTML is a
// sanitized server-side rendering of Body for immediate display.
type ReplyResponse struct {
	ID        int64        `json:"id"`
	NodeID    string       `json:"node_id"`
	InReplyTo int64        `json:"in_reply_to"`
	Body      string       `json:"body"`
	BodyHTML  string       `json:"body_html"`
	HTMLURL   string       `json:"html_url"`
	User      UserResponse `json:"user"`
	CreatedAt string       `json:"created_at"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toCheckStateResponse(s model.CheckState) CheckStateResponse {
	resp := CheckStateResponse{IsChecked: s.IsChecked}
	if s.CheckedAt != nil {
		ts := formatTimestamp(*s.CheckedAt)
		resp.CheckedAt = &ts
	}
	return resp
}

func toCheckRecordResponse(c model.CommentCheck) CheckRecordResponse {
	state := toCheckStateResponse(c.State())
	return CheckRecordResponse{
		ID:        c.ID,
		PRNumber:  c.PRNumber,
		CommentID: c.CommentID,
		RepoOwner: c.RepoOwner,
		RepoName:  c.RepoName,
		IsChecked: c.IsChecked,
		CheckedAt: state.CheckedAt,
		CreatedAt: formatTimestamp(c.CreatedAt),
		UpdatedAt: formatTimestamp(c.UpdatedAt),
	}
}

func toReplyResponse(r model.CreatedReply, bodyHTML string) ReplyResponse {
	return ReplyResponse{
		ID:        r.ID,
		NodeID:    r.NodeID,
		InReplyTo: r.InReplyTo,
		Body:      r.Body,
		BodyHTML:  bodyHTML,
		HTMLURL:   r.HTMLURL,
		User: UserResponse{
			Login:     r.Author.Login,
			HTMLURL:   r.Author.URL,
			AvatarURL: r.Author.AvatarURL,
		},
		CreatedAt: formatTimestamp(r.CreatedAt),
	}
}

// errorStatus maps err to a status code and a message safe for the client.
func errorStatus(err error) (int, string) {
	return apperrors.HTTPStatus(err), apperrors.PublicMessage(err)
}
