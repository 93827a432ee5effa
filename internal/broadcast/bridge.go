package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reliefconnect/relief-connect/internal/models"
)

// DefaultChannel is the pub/sub channel shared by every instance.
const DefaultChannel = "relief-connect"

const messageNewIncident = "new-incident"

type envelope struct {
	Type     string        `json:"type"`
	Incident models.Record `json:"incident"`
}

// IncidentHandler receives records published by other instances. It should
// treat delivery as at-least-once: the same record can arrive more than once.
type IncidentHandler func(models.Record)

// Bridge relays inserted records between instances over a shared Redis
// pub/sub channel. The insert path never blocks on it: publish failures are
// logged and dropped.
type Bridge struct {
	client  *redis.Client
	channel string
	handler IncidentHandler
	pubsub  *redis.PubSub
	wg      sync.WaitGroup
}

// Dial connects to Redis and verifies it is reachable. Callers are expected
// to treat an error as "cross-instance propagation unavailable" and carry on
// with a nil bridge.
func Dial(ctx context.Context, addr, channel string, handler IncidentHandler) (*Bridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	if channel == "" {
		channel = DefaultChannel
	}
	return &Bridge{
		client:  client,
		channel: channel,
		handler: handler,
	}, nil
}

// Run subscribes to the channel and relays incoming incidents to the handler
// until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	b.pubsub = b.client.Subscribe(ctx, b.channel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range b.pubsub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("dropping malformed broadcast message", "error", err)
				continue
			}
			if env.Type != messageNewIncident {
				continue
			}
			if b.handler != nil {
				b.handler(env.Incident)
			}
		}
	}()
}

// Publish announces a record to every other instance on the channel.
func (b *Bridge) Publish(ctx context.Context, rec models.Record) {
	payload, err := json.Marshal(envelope{Type: messageNewIncident, Incident: rec})
	if err != nil {
		slog.Error("failed to encode broadcast message", "id", rec.ID, "error", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		slog.Warn("broadcast publish failed", "id", rec.ID, "error", err)
	}
}

func (b *Bridge) Close() {
	if b.pubsub != nil {
		b.pubsub.Close()
	}
	b.wg.Wait()
	b.client.Close()
}
