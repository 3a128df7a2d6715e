package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestRemoteRouterPostsReports(t *testing.T) {
	var mu sync.Mutex
	var got []Report
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, ReceivePath)
		assert.Equal(t, r.Header.Get("Content-Type"), "application/json")
		var rep Report
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&rep))
		mu.Lock()
		got = append(got, rep)
		mu.Unlock()
	}))
	defer srv.Close()

	router := NewRemoteRouter(srv.URL+"/", srv.Client(), 16)
	for i := 1; i <= 3; i++ {
		router.Route(Report{Session: "s", Type: IterationReport, Iteration: i})
	}
	assert.NilError(t, router.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(got), 3)
	assert.Equal(t, got[2].Iteration, 3)
	assert.Equal(t, router.Dropped(), uint64(0))

	// routing after close is a no-op
	router.Route(Report{Session: "s"})
	assert.NilError(t, router.Close())
}

func TestRemoteRouterDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()

	router := NewRemoteRouter(srv.URL, srv.Client(), 2)
	start := time.Now()
	for i := 0; i < 20; i++ {
		router.Route(Report{Session: "s", Iteration: i})
	}
	// Route never waits for the server
	assert.Assert(t, time.Since(start) < time.Second)
	// at most one in flight plus two queued
	assert.Assert(t, router.Dropped() >= 17, "dropped %d", router.Dropped())

	close(release)
	assert.NilError(t, router.Close())
}

func TestRemoteRouterCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	router := NewRemoteRouter(srv.URL, srv.Client(), 8)
	router.Route(Report{Session: "s"})
	router.Route(Report{Session: "s"})
	assert.NilError(t, router.Close())
	assert.Equal(t, router.Failed(), uint64(2))
}

func TestNewRouter(t *testing.T) {
	_, ok := NewRouter("").(NopRouter)
	assert.Assert(t, ok)

	r := NewRouter("http://127.0.0.1:1")
	_, ok = r.(*RemoteRouter)
	assert.Assert(t, ok)
	assert.NilError(t, r.Close())
}
