package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func TestFetchDownloadsMissingFiles(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("content of " + r.URL.Path))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "raw")
	f := &Fetcher{Folder: dir, BaseURL: srv.URL + "/wine-quality/", Client: srv.Client()}
	assert.NilError(t, f.Fetch(context.Background()))
	assert.Equal(t, atomic.LoadInt32(&hits), int32(len(Files)))

	data, err := os.ReadFile(filepath.Join(dir, "winequality-red.csv"))
	assert.NilError(t, err)
	assert.Equal(t, string(data), "content of /wine-quality/winequality-red.csv")

	// second run finds everything on disk
	assert.NilError(t, f.Fetch(context.Background()))
	assert.Equal(t, atomic.LoadInt32(&hits), int32(len(Files)))
}

func TestFetchSkipsExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "winequality.names")
	assert.NilError(t, os.WriteFile(path, []byte("local"), 0o644))

	f := &Fetcher{Folder: dir, BaseURL: srv.URL, Client: srv.Client()}
	assert.NilError(t, f.FetchFile(context.Background(), "winequality.names"))

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "local")
}

func TestFetchFailureRemovesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := &Fetcher{Folder: dir, BaseURL: srv.URL, Client: srv.Client()}
	err := f.FetchFile(context.Background(), "winequality-white.csv")
	assert.Assert(t, is.ErrorContains(err, "404"))

	_, statErr := os.Stat(filepath.Join(dir, "winequality-white.csv"))
	assert.Assert(t, os.IsNotExist(statErr))
}

func TestFetchTruncatedBodyRemovesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// promise more bytes than are sent
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("partial"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := &Fetcher{Folder: dir, BaseURL: srv.URL, Client: srv.Client()}
	assert.Assert(t, f.FetchFile(context.Background(), "winequality-red.csv") != nil)

	_, statErr := os.Stat(filepath.Join(dir, "winequality-red.csv"))
	assert.Assert(t, os.IsNotExist(statErr))
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &Fetcher{Folder: t.TempDir(), BaseURL: srv.URL, Client: srv.Client()}
	assert.Assert(t, f.Fetch(ctx) != nil)
}
