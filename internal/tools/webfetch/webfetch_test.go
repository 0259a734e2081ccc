package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Example</title></head>
<body><script>ignored()</script><h1>Hello</h1><p>World</p></body></html>`))
	}))
	defer srv.Close()

	f := New(0)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Example", result.Title)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Contains(t, result.Text, "Hello")
	require.Contains(t, result.Text, "World")
	require.NotContains(t, result.Text, "ignored()")
	require.False(t, result.Truncated)
}

func TestFetchTruncatesOversizedBody(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("x", 100) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := New(20)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, result.Truncated)
}

func TestFetchReportsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><body><p>missing</p></body></html>`))
	}))
	defer srv.Close()

	f := New(0)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, result.StatusCode)
}
