// Package live keeps an auto-refreshing picture of active alerts, filtered
// to what is relevant to the current user.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/query"
)

// DefaultInterval is how often the view refreshes itself.
const DefaultInterval = 30 * time.Second

// Notifier raises a single user-facing notification.
type Notifier interface {
	Notify(title, body string)
}

// View polls the store on an interval, remembers which high-priority records
// it has already notified, and serves severity/region-filtered results.
type View struct {
	exec     *query.Executor
	notifier Notifier
	interval time.Duration

	mu          sync.Mutex
	alerts      []models.Record
	lastUpdated time.Time
	loading     bool
	place       string
	seen        map[int64]struct{}
}

// New builds a view. place is the user's saved place name, matched against
// records when no explicit region is selected; it may be empty. notifier may
// be nil.
func New(exec *query.Executor, notifier Notifier, interval time.Duration, place string) *View {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &View{
		exec:     exec,
		notifier: notifier,
		interval: interval,
		place:    place,
		seen:     make(map[int64]struct{}),
	}
}

// Run refreshes once immediately, then on every tick until ctx is cancelled.
func (v *View) Run(ctx context.Context) {
	v.Refresh()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("live view shutting down")
			return
		case <-ticker.C:
			v.Refresh()
		}
	}
}

// Refresh reloads active alerts in canonical order. A failed load keeps the
// last-known list and clears the loading flag; it never takes the view down.
func (v *View) Refresh() {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	res := v.exec.Execute(query.Select{ActiveOnly: true, Ordered: true})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false

	if !res.Success {
		slog.Error("live view refresh failed", "error", res.Error)
		return
	}

	v.notifyHighPriority(res.Data)
	v.alerts = res.Data
	v.lastUpdated = time.Now()
}

// notifyHighPriority raises one notification per not-yet-seen critical or
// high record. Caller holds v.mu.
func (v *View) notifyHighPriority(records []models.Record) {
	if v.notifier == nil {
		return
	}
	for _, rec := range records {
		if !rec.Severity.HighPriority() {
			continue
		}
		if _, ok := v.seen[rec.ID]; ok {
			continue
		}
		v.seen[rec.ID] = struct{}{}
		v.notifier.Notify(
			fmt.Sprintf("%s Alert: %s", strings.ToUpper(string(rec.Severity)), rec.Title),
			fmt.Sprintf("%s • %s", rec.Location, rec.Source),
		)
	}
}

// SetPlace replaces the saved place used for the fallback region match.
func (v *View) SetPlace(place string) {
	v.mu.Lock()
	v.place = place
	v.mu.Unlock()
}

// Alerts returns the current list with only the saved-place fallback applied.
func (v *View) Alerts() []models.Record {
	return v.AlertsWith("", "")
}

// AlertsWith returns the current list with the caller's severity and region
// filters applied. Filters belong to the request, not the view, so
// concurrent readers never see each other's choices. With an explicit
// region, only the location is matched; otherwise the saved place is matched
// across location, title and description.
func (v *View) AlertsWith(severity, region string) []models.Record {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]models.Record, 0, len(v.alerts))
	for _, rec := range v.alerts {
		if severity != "" && severity != "all" && string(rec.Severity) != severity {
			continue
		}
		if !v.matchesRegion(&rec, region) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (v *View) matchesRegion(rec *models.Record, region string) bool {
	if region != "" && region != "all" {
		return containsFold(rec.Location, region)
	}
	if v.place == "" {
		return true
	}
	return containsFold(rec.Location, v.place) ||
		containsFold(rec.Title, v.place) ||
		containsFold(rec.Description, v.place)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *View) LastUpdated() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUpdated
}
