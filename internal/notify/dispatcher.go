// Package notify surfaces newly created records to the people watching:
// in-process listeners feed the live toast stream, and an optional webhook
// plays the role the OS notification plays in a browser.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/worker"
)

type Listener func(models.Record)

type webhookJob struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Dispatcher fans records out to subscribed listeners and pushes webhook
// notifications through a worker pool. Deliveries are fire-and-forget: there
// is no acknowledgement and late subscribers see nothing that came before.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    atomic.Uint64

	webhookURL string
	client     *resty.Client
	pool       *worker.WorkerPool
	probeOnce  sync.Once
	permitted  atomic.Bool

	pendingMu  sync.Mutex
	pending    []webhookJob
	probed     bool
	pendingCap int
}

func NewDispatcher(webhookURL string, workers, bufferSize int) *Dispatcher {
	d := &Dispatcher{
		listeners:  make(map[uint64]Listener),
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(10 * time.Second),
		pendingCap: bufferSize,
	}
	d.pool = worker.NewWorkerPool(workers, bufferSize, d.deliver)
	return d
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

func (d *Dispatcher) Stop() {
	d.pool.Stop()
}

func (d *Dispatcher) Subscribe(l Listener) uint64 {
	id := d.nextID.Add(1)
	d.mu.Lock()
	d.listeners[id] = l
	d.mu.Unlock()
	return id
}

func (d *Dispatcher) Unsubscribe(id uint64) {
	d.mu.Lock()
	delete(d.listeners, id)
	d.mu.Unlock()
}

// Dispatch raises the in-process event for a new record and queues the
// default webhook notification for it.
func (d *Dispatcher) Dispatch(rec models.Record) {
	// Invoke listeners outside the lock so one may subscribe or
	// unsubscribe from inside its callback.
	d.mu.RLock()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		listeners = append(listeners, l)
	}
	d.mu.RUnlock()
	for _, l := range listeners {
		l(rec)
	}

	title := rec.Title
	if title == "" {
		title = "New Incident"
	}
	d.Notify(title, rec.Description)
}

// Notify queues one webhook notification. Without a configured webhook, or
// once the endpoint has proven unreachable, it is silently a no-op; it never
// blocks the caller. Notifications raised while the reachability probe is
// still in flight are held and flushed when the probe succeeds, so the
// notification that triggered the probe is not lost.
func (d *Dispatcher) Notify(title, body string) {
	if d.webhookURL == "" {
		return
	}
	job := webhookJob{Title: title, Body: body}
	d.probeOnce.Do(func() { go d.probe() })

	if !d.permitted.Load() {
		d.pendingMu.Lock()
		if !d.probed {
			if len(d.pending) < d.pendingCap {
				d.pending = append(d.pending, job)
			} else {
				slog.Warn("notification queue full, dropping", "title", title)
			}
			d.pendingMu.Unlock()
			return
		}
		d.pendingMu.Unlock()
		if !d.permitted.Load() {
			return
		}
	}
	if !d.pool.TrySubmit(job) {
		slog.Warn("notification queue full, dropping", "title", title)
	}
}

// probe checks the webhook endpoint once, the counterpart of a one-time
// permission request. Any HTTP response counts as reachable; only transport
// failures leave notifications disabled. On success the notifications held
// while the probe was in flight are delivered.
func (d *Dispatcher) probe() {
	_, err := d.client.R().Head(d.webhookURL)

	// Grant before marking the probe resolved, so a Notify that sees the
	// resolved flag also sees the grant.
	if err == nil {
		d.permitted.Store(true)
	}

	d.pendingMu.Lock()
	d.probed = true
	pending := d.pending
	d.pending = nil
	d.pendingMu.Unlock()

	if err != nil {
		slog.Warn("notification webhook unreachable, notifications disabled", "error", err)
		return
	}
	slog.Info("notification webhook reachable", "url", d.webhookURL)

	for _, job := range pending {
		if !d.pool.TrySubmit(job) {
			slog.Warn("notification queue full, dropping", "title", job.Title)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job worker.Job) error {
	wj := job.(webhookJob)
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(wj).
		Post(d.webhookURL)
	if err != nil {
		slog.Warn("webhook delivery failed", "title", wj.Title, "error", err)
		return err
	}
	if resp.IsError() {
		slog.Warn("webhook delivery rejected", "title", wj.Title, "status", resp.StatusCode())
	}
	return nil
}
