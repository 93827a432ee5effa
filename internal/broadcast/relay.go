package broadcast

import (
	"context"

	"github.com/reliefconnect/relief-connect/internal/models"
)

// Relay fans a freshly inserted record out to in-process subscribers and,
// when a bridge is connected, to other instances. A nil bridge degrades to
// local-only delivery.
type Relay struct {
	Local  *Broadcaster
	Bridge *Bridge
}

func (r *Relay) Announce(rec models.Record) {
	if r.Local != nil {
		r.Local.Publish(rec)
	}
	if r.Bridge != nil {
		// Keep the insert path non-blocking.
		go r.Bridge.Publish(context.Background(), rec)
	}
}
