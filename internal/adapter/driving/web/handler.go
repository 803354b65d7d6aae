// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/reviewchecker/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/reviewchecker/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/reviewchecker/internal/application"
	"github.com/ericfisherdev/reviewchecker/internal/apperrors"
	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// PullRequestReader is the read surface the pages need.
type PullRequestReader interface {
	RepoInfo(ctx context.Context) (model.RepoInfo, error)
	ListPullRequests(ctx context.Context, listType model.PRListType, state model.PRState) ([]model.PullRequest, error)
	GetPullRequestDetail(ctx context.Context, number int, includeResolved bool) (*model.PRDetail, error)
}

// CheckHydrator fills each comment's check state.
type CheckHydrator interface {
	Hydrate(ctx context.Context, detail *model.PRDetail) error
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	prs          PullRequestReader
	checks       CheckHydrator
	appTitle     string
	defaultState string
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. defaultState
// is the list filter used when the request has no state parameter.
func NewHandler(
	prs PullRequestReader,
	checks CheckHydrator,
	appTitle string,
	defaultState string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		prs:          prs,
		checks:       checks,
		appTitle:     appTitle,
		defaultState: defaultState,
		now:          time.Now,
		logger:       logger,
	}
}

// Index renders the PR list filtered by the state and type query parameters.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	stateParam := h.defaultState
	if query.Has("state") {
		stateParam = query.Get("state")
	}
	state, err := application.ValidatePRState(stateParam)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	typeParam := string(model.PRListAuthored)
	if query.Has("type") {
		typeParam = query.Get("type")
	}
	listType, err := application.ValidatePRType(typeParam)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	repo, err := h.prs.RepoInfo(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	prs, err := h.prs.ListPullRequests(ctx, listType, state)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := toPRListViewModel(repo, listType, state, prs, h.now())
	h.render(w, r, http.StatusOK, h.layout(repo, ""), templates.PRList(page))
}

// PRDetail renders a PR's review comments and commits.
func (h *Handler) PRDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		h.NotFound(w, r)
		return
	}

	includeResolved := queryFlag(r, "include_resolved")
	compact := queryFlag(r, "compact_mode")

	repo, err := h.prs.RepoInfo(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	detail, err := h.prs.GetPullRequestDetail(ctx, number, includeResolved)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	// The page stays usable without check state; checkboxes render unchecked.
	if err := h.checks.Hydrate(ctx, detail); err != nil {
		h.logger.Warn("check state unavailable", "pr", number, "error", err)
	}

	page := toPRDetailViewModel(repo, detail, includeResolved, compact, h.now())
	title := "#" + strconv.Itoa(number) + " " + detail.Title
	h.render(w, r, http.StatusOK, h.layout(repo, title), templates.PRDetail(page))
}

// NotFound renders the HTML not-found page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("page not found", "method", r.Method, "path", r.URL.Path)
	h.render(w, r, http.StatusNotFound, h.layout(model.RepoInfo{}, "Not found"), templates.ErrorPage(vm.ErrorViewModel{
		Status:  http.StatusNotFound,
		Title:   "Page not found",
		Message: "The page you requested does not exist.",
	}))
}

// renderError maps err to a status and renders the error page. Gateway and
// unexpected errors are logged in full but shown generically.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	page := vm.ErrorViewModel{Status: status, Message: apperrors.PublicMessage(err)}

	attrs := []any{"method", r.Method, "path", r.URL.Path, "status", status, "error", err}

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		page.Title = "Invalid input"
		h.logger.Warn("invalid page request", attrs...)
	case apperrors.KindNotFound:
		page.Title = "Not found"
		if appErr, ok := apperrors.As(err); ok {
			page.Title = appErr.ResourceType + " not found"
		}
		h.logger.Info("page resource not found", attrs...)
	case apperrors.KindGateway:
		page.Title = "GitHub connection error"
		h.logger.Error("github request failed", attrs...)
	default:
		page.Title = "Server error"
		h.logger.Error("page render failed", attrs...)
	}

	h.render(w, r, status, h.layout(model.RepoInfo{}, page.Title), templates.ErrorPage(page))
}

func (h *Handler) layout(repo model.RepoInfo, pageTitle string) vm.LayoutViewModel {
	layout := vm.LayoutViewModel{AppTitle: h.appTitle, PageTitle: pageTitle}
	if repo.Owner != "" {
		layout.RepoFullName = repo.FullName()
		layout.RepoURL = "https://github.com/" + repo.FullName()
	}
	return layout
}

// render writes the page with the full HTML layout. The body is rendered into
// memory first so a template failure can still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, layout vm.LayoutViewModel, content templ.Component) {
	var buf strings.Builder
	if err := templates.Layout(layout, content).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// queryFlag reports whether the named query parameter equals "true",
// ignoring case.
func queryFlag(r *http.Request, name string) bool {
	return strings.EqualFold(r.URL.Query().Get(name), "true")
}
