package monitor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
)

// ReceivePath is where the UI server accepts reports.
const ReceivePath = "/remoteReceive"

// DefaultQueueSize bounds the reports waiting to be sent.
const DefaultQueueSize = 1024

var log = logging.New("monitor")

// Router delivers reports somewhere. Route must not block.
type Router interface {
	Route(r Report)
	Close() error
}

// NopRouter discards every report.
type NopRouter struct{}

func (NopRouter) Route(Report) {}
func (NopRouter) Close() error { return nil }

// RemoteRouter posts reports as JSON to a UI server from a background
// goroutine. Reports that do not fit into the queue are dropped.
type RemoteRouter struct {
	url    string
	client *http.Client

	mu     sync.RWMutex
	closed bool
	queue  chan Report
	done   chan struct{}

	dropped   uint64
	failed    uint64
	lastError time.Time
	// ErrorInterval is the minimum time between two logged send failures.
	ErrorInterval time.Duration
}

// NewRemoteRouter starts a router posting to baseURL + ReceivePath. A nil
// client gets a 5 second timeout; size <= 0 uses DefaultQueueSize.
func NewRemoteRouter(baseURL string, client *http.Client, size int) *RemoteRouter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if size <= 0 {
		size = DefaultQueueSize
	}
	r := &RemoteRouter{
		url:           strings.TrimSuffix(baseURL, "/") + ReceivePath,
		client:        client,
		queue:         make(chan Report, size),
		done:          make(chan struct{}),
		ErrorInterval: 30 * time.Second,
	}
	go r.loop()
	return r
}

// NewRouter returns a RemoteRouter for url, or a NopRouter when url is empty.
func NewRouter(url string) Router {
	if url == "" {
		return NopRouter{}
	}
	return NewRemoteRouter(url, nil, 0)
}

func (r *RemoteRouter) Route(rep Report) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rep:
	default:
		atomic.AddUint64(&r.dropped, 1)
	}
}

// Close stops accepting reports and waits until the queued ones are sent.
func (r *RemoteRouter) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
	if n := r.Dropped(); n > 0 {
		log.Warnf("Dropped %d reports because the queue was full", n)
	}
	return nil
}

// Dropped returns how many reports were discarded because the queue was full.
func (r *RemoteRouter) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// Failed returns how many reports could not be delivered.
func (r *RemoteRouter) Failed() uint64 {
	return atomic.LoadUint64(&r.failed)
}

func (r *RemoteRouter) loop() {
	defer close(r.done)
	for rep := range r.queue {
		if err := r.post(rep); err != nil {
			atomic.AddUint64(&r.failed, 1)
			if now := time.Now(); now.Sub(r.lastError) >= r.ErrorInterval {
				r.lastError = now
				log.Warnf("Failed to send stats to %s: %v", r.url, err)
			}
		}
	}
}

func (r *RemoteRouter) post(rep Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	resp, err := r.client.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
