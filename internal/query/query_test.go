package query

import (
	"testing"
	"time"

	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/store"
)

type countingAnnouncer struct {
	announced []models.Record
}

func (a *countingAnnouncer) Announce(rec models.Record) {
	a.announced = append(a.announced, rec)
}

type countingNotifier struct {
	dispatched []models.Record
}

func (n *countingNotifier) Dispatch(rec models.Record) {
	n.dispatched = append(n.dispatched, rec)
}

type bogusCommand struct{}

func (bogusCommand) isCommand() {}

func TestExecutor_Count(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	for i := 0; i < 3; i++ {
		res := e.Execute(Insert{Record: models.Record{Title: "alert"}})
		if !res.Success {
			t.Fatalf("insert %d failed: %s", i, res.Error)
		}
	}

	res := e.Execute(Count{})
	if !res.Success {
		t.Fatalf("count failed: %s", res.Error)
	}
	if res.Count != 3 {
		t.Errorf("expected count 3, got %d", res.Count)
	}
}

func TestExecutor_InsertBroadcasts(t *testing.T) {
	s := store.New()
	a := &countingAnnouncer{}
	n := &countingNotifier{}
	e := NewExecutor(s, a, n)

	res := e.Execute(Insert{Record: models.Record{Title: "Flood A"}, Broadcast: true})
	if !res.Success {
		t.Fatalf("insert failed: %s", res.Error)
	}

	if len(a.announced) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(a.announced))
	}
	if len(n.dispatched) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(n.dispatched))
	}
	// The announced record carries the assigned fields.
	if a.announced[0].ID == 0 || !a.announced[0].Active {
		t.Errorf("announced record missing assigned fields: %+v", a.announced[0])
	}
}

func TestExecutor_SilentInsertIsStoredButNotAnnounced(t *testing.T) {
	s := store.New()
	a := &countingAnnouncer{}
	n := &countingNotifier{}
	e := NewExecutor(s, a, n)

	res := e.Execute(Insert{Record: models.Record{Title: "quiet"}, Broadcast: false})
	if !res.Success {
		t.Fatalf("insert failed: %s", res.Error)
	}

	if len(a.announced) != 0 {
		t.Errorf("expected no announcements, got %d", len(a.announced))
	}
	if len(n.dispatched) != 0 {
		t.Errorf("expected no dispatches, got %d", len(n.dispatched))
	}

	listed := e.Execute(Select{})
	if listed.Count != 1 {
		t.Errorf("expected the record in a subsequent read, got %d records", listed.Count)
	}
}

func TestExecutor_SelectOrdersBySeverityThenRecency(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	t1 := time.Now().Add(-2 * time.Hour)
	t2 := time.Now().Add(-1 * time.Hour)
	s.Upsert(models.Record{ID: 1, Title: "C1", Severity: models.SeverityCritical, CreatedAt: t1, Active: true})
	s.Upsert(models.Record{ID: 2, Title: "C2", Severity: models.SeverityHigh, CreatedAt: t2, Active: true})

	res := e.Execute(Select{Ordered: true})
	if !res.Success {
		t.Fatalf("select failed: %s", res.Error)
	}
	if res.Data[0].Title != "C1" || res.Data[1].Title != "C2" {
		t.Errorf("expected critical before high regardless of time, got %q then %q",
			res.Data[0].Title, res.Data[1].Title)
	}
}

func TestExecutor_SelectBreaksTiesNewestFirst(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	t1 := time.Now().Add(-2 * time.Hour)
	t2 := time.Now().Add(-1 * time.Hour)
	s.Upsert(models.Record{ID: 1, Title: "older", Severity: models.SeverityCritical, CreatedAt: t1, Active: true})
	s.Upsert(models.Record{ID: 2, Title: "newer", Severity: models.SeverityCritical, CreatedAt: t2, Active: true})

	res := e.Execute(Select{Ordered: true})
	if res.Data[0].Title != "newer" || res.Data[1].Title != "older" {
		t.Errorf("expected newest first on severity tie, got %q then %q",
			res.Data[0].Title, res.Data[1].Title)
	}
}

func TestExecutor_SelectUnknownSeveritySortsLast(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	now := time.Now()
	s.Upsert(models.Record{ID: 1, Title: "mystery", Severity: "apocalyptic", CreatedAt: now, Active: true})
	s.Upsert(models.Record{ID: 2, Title: "low", Severity: models.SeverityLow, CreatedAt: now, Active: true})

	res := e.Execute(Select{Ordered: true})
	if res.Data[len(res.Data)-1].Title != "mystery" {
		t.Errorf("expected unknown severity last, got %q", res.Data[len(res.Data)-1].Title)
	}
}

func TestExecutor_SelectFilters(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	e.Execute(Insert{Record: models.Record{Title: "p1", AlertType: "missing_person"}})
	e.Execute(Insert{Record: models.Record{Title: "i1", AlertType: "lost_item"}})
	e.Execute(Insert{Record: models.Record{Title: "p2", AlertType: "missing_person"}})

	res := e.Execute(Select{AlertType: "missing_person"})
	if res.Count != 2 {
		t.Errorf("expected 2 missing_person records, got %d", res.Count)
	}

	// Deactivated records drop out of active-only reads.
	id := res.Data[0].ID
	e.Execute(Update{ID: id, Active: false})
	res = e.Execute(Select{AlertType: "missing_person", ActiveOnly: true})
	if res.Count != 1 {
		t.Errorf("expected 1 active missing_person record, got %d", res.Count)
	}
}

func TestExecutor_UpdateLifecycle(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)

	ins := e.Execute(Insert{Record: models.Record{Title: "Lost wallet", AlertType: "lost_item"}})
	id := ins.Data[0].ID

	res := e.Execute(Update{ID: id, Active: false})
	if !res.Success {
		t.Fatalf("update failed: %s", res.Error)
	}
	got := e.Execute(Select{}).Data[0]
	if got.Active || got.Status != models.StatusFound {
		t.Errorf("expected inactive with status found, got active=%v status=%q", got.Active, got.Status)
	}

	res = e.Execute(Update{ID: id, Active: true})
	if !res.Success {
		t.Fatalf("reactivate failed: %s", res.Error)
	}
	got = e.Execute(Select{}).Data[0]
	if !got.Active || got.Status != models.StatusFound {
		t.Errorf("expected active with status unchanged, got active=%v status=%q", got.Active, got.Status)
	}
}

func TestExecutor_UpdateUnknownIDSucceeds(t *testing.T) {
	s := store.New()
	e := NewExecutor(s, nil, nil)
	e.Execute(Insert{Record: models.Record{Title: "a"}})

	res := e.Execute(Update{ID: 123456789, Active: false})
	if !res.Success {
		t.Errorf("expected success for unmatched update, got error %q", res.Error)
	}
	if res.Error != "" || len(res.Data) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if got := e.Execute(Select{}).Data[0]; !got.Active {
		t.Error("expected existing record untouched")
	}
}

func TestExecutor_UnsupportedCommand(t *testing.T) {
	e := NewExecutor(store.New(), nil, nil)

	res := e.Execute(bogusCommand{})
	if res.Success {
		t.Error("expected failure for unsupported command")
	}
	if res.Error != "unsupported query type" {
		t.Errorf("expected %q, got %q", "unsupported query type", res.Error)
	}
}
