// Package query exposes the store through a small set of typed commands.
// Callers construct commands directly; every outcome, including unsupported
// commands, comes back as a Result rather than an error or panic, so UI-facing
// handlers can always render something.
package query

import (
	"sort"

	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/store"
)

// Command is one of Count, Insert, Update or Select.
type Command interface {
	isCommand()
}

// Count reports the total number of records in the store.
type Count struct{}

// Insert adds a new record. When Broadcast is set the stored record is also
// announced to other instances and dispatched to notification listeners.
type Insert struct {
	Record    models.Record
	Broadcast bool
}

// Update flips a record's active flag. Deactivating marks the record found.
type Update struct {
	ID     int64
	Active bool
}

// Select returns records, optionally restricted to one alert type and to
// active records, in canonical order (urgency rank, then newest first) when
// Ordered is set.
type Select struct {
	AlertType  string
	ActiveOnly bool
	Ordered    bool
}

func (Count) isCommand()  {}
func (Insert) isCommand() {}
func (Update) isCommand() {}
func (Select) isCommand() {}

type Result struct {
	Success bool            `json:"success"`
	Data    []models.Record `json:"data,omitempty"`
	Count   int             `json:"count"`
	Error   string          `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Error: msg}
}

// Announcer publishes a freshly inserted record beyond this process.
type Announcer interface {
	Announce(models.Record)
}

// Notifier surfaces a freshly inserted record to in-process listeners and,
// where configured, external notification sinks.
type Notifier interface {
	Dispatch(models.Record)
}

// Executor runs commands against a store, announcing and dispatching inserts
// that ask for it. Announcer and Notifier may be nil.
type Executor struct {
	store     *store.Store
	announcer Announcer
	notifier  Notifier
}

func NewExecutor(s *store.Store, a Announcer, n Notifier) *Executor {
	return &Executor{store: s, announcer: a, notifier: n}
}

func (e *Executor) Execute(cmd Command) Result {
	switch c := cmd.(type) {
	case Count:
		return Result{Success: true, Count: e.store.Count()}
	case Insert:
		return e.insert(c)
	case Update:
		e.store.SetActive(c.ID, c.Active)
		// An unmatched ID is deliberately not an error.
		return Result{Success: true}
	case Select:
		return e.selectRecords(c)
	default:
		return failure("unsupported query type")
	}
}

func (e *Executor) insert(c Insert) Result {
	rec := e.store.Insert(c.Record)
	if c.Broadcast {
		if e.announcer != nil {
			e.announcer.Announce(rec)
		}
		if e.notifier != nil {
			e.notifier.Dispatch(rec)
		}
	}
	return Result{Success: true, Data: []models.Record{rec}, Count: 1}
}

func (e *Executor) selectRecords(c Select) Result {
	records := e.store.Snapshot()

	out := records[:0]
	for _, rec := range records {
		if c.AlertType != "" && rec.AlertType != c.AlertType {
			continue
		}
		if c.ActiveOnly && !rec.Active {
			continue
		}
		out = append(out, rec)
	}

	if c.Ordered {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Less(&out[j])
		})
	}

	return Result{Success: true, Data: out, Count: len(out)}
}
