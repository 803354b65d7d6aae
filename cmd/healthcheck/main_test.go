package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "127.0.0.1:5000"},
		{"garbage", "127.0.0.1:5000"},
		{"0.0.0.0:8080", "127.0.0.1:8080"},
		{":9090", "127.0.0.1:9090"},
		{"[::]:5000", "127.0.0.1:5000"},
		{"10.0.0.5:5000", "10.0.0.5:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func TestCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	assert.Equal(t, 0, check(strings.TrimPrefix(healthy.URL, "http://")))
	assert.Equal(t, 1, check(strings.TrimPrefix(failing.URL, "http://")))
	assert.Equal(t, 1, check("127.0.0.1:1"))
}
