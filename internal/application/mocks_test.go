package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

var testRepo = model.RepoInfo{Owner: "acme", Name: "widgets"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- GitHubGateway ---

type mockGateway struct {
	repoInfoCalls atomic.Int32
	listCalls     atomic.Int32
	detailCalls   atomic.Int32
	replyCalls    atomic.Int32

	repoErr   error
	authored  []model.PullRequest
	reviewed  []model.PullRequest
	listErr   error
	detail    *driven.RawPullRequest
	detailErr error
	reply     *model.CreatedReply
	replyErr  error

	lastReplyBody string
}

func (m *mockGateway) RepoInfo(_ context.Context) (model.RepoInfo, error) {
	m.repoInfoCalls.Add(1)
	if m.repoErr != nil {
		return model.RepoInfo{}, m.repoErr
	}
	return testRepo, nil
}

func (m *mockGateway) ListAuthoredPullRequests(_ context.Context, _ model.RepoInfo, _ model.PRState) ([]model.PullRequest, error) {
	m.listCalls.Add(1)
	return m.authored, m.listErr
}

func (m *mockGateway) ListReviewedPullRequests(_ context.Context, _ model.RepoInfo, _ model.PRState) ([]model.PullRequest, error) {
	m.listCalls.Add(1)
	return m.reviewed, m.listErr
}

func (m *mockGateway) FetchPullRequestDetail(_ context.Context, _ model.RepoInfo, _ int) (*driven.RawPullRequest, error) {
	m.detailCalls.Add(1)
	return m.detail, m.detailErr
}

func (m *mockGateway) AddReplyToComment(_ context.Context, _ model.RepoInfo, _ int, _ string, body string) (*model.CreatedReply, error) {
	m.replyCalls.Add(1)
	m.lastReplyBody = body
	return m.reply, m.replyErr
}

// --- CommentCheckStore ---

type checkKey struct {
	pr        int
	commentID string
}

type mockCheckStore struct {
	mu      sync.Mutex
	rows    map[checkKey]model.CommentCheck
	nextID  int64
	now     time.Time
	failErr error
}

func newMockCheckStore() *mockCheckStore {
	return &mockCheckStore{
		rows: make(map[checkKey]model.CommentCheck),
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockCheckStore) Get(_ context.Context, pr int, commentID string) (*model.CommentCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	row, ok := m.rows[checkKey{pr, commentID}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *mockCheckStore) Upsert(_ context.Context, check model.CommentCheck) (*model.CommentCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.now = m.now.Add(time.Second)
	key := checkKey{check.PRNumber, check.CommentID}
	row, ok := m.rows[key]
	if ok {
		row.IsChecked = check.IsChecked
		row.UpdatedAt = m.now
	} else {
		m.nextID++
		row = check
		row.ID = m.nextID
		row.CreatedAt = m.now
		row.UpdatedAt = m.now
	}
	m.rows[key] = row
	return &row, nil
}

func (m *mockCheckStore) Delete(_ context.Context, pr int, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.rows, checkKey{pr, commentID})
	return nil
}

func (m *mockCheckStore) ListChecked(_ context.Context, pr int) ([]model.CommentCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.CommentCheck
	for k, row := range m.rows {
		if k.pr == pr && row.IsChecked {
			out = append(out, row)
		}
	}
	return out, nil
}

// --- CacheStore ---

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) ttlFor(prefix string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, ttl := range c.ttls {
		if len(k) > len(prefix) && k[:len(prefix)+1] == prefix+":" {
			return ttl, true
		}
	}
	return 0, false
}

// --- Pinger ---

type mockPinger struct{ err error }

func (p mockPinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("boom")
