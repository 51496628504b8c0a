package realtime

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"rete.backend/pkg/logger"
	"rete.backend/pkg/redis"
)

const channelPrefix = "rete:realtime:"

var (
	publishEvent    = redis.Publish
	subscribeEvents = redis.PSubscribe
)

type envelope struct {
	Groups  []string `json:"groups"`
	Message Message  `json:"message"`
}

// RedisBroadcaster fans messages out to every instance through Redis pub/sub.
// Each instance runs Run to relay what it receives into its local hub.
type RedisBroadcaster struct {
	hub *Hub
}

// NewRedisBroadcaster creates a broadcaster relaying into hub
func NewRedisBroadcaster(hub *Hub) *RedisBroadcaster {
	return &RedisBroadcaster{hub: hub}
}

// Broadcast publishes msg for groups on the channel of its type
func (b *RedisBroadcaster) Broadcast(ctx context.Context, groups []string, msg Message) error {
	payload, err := json.Marshal(envelope{Groups: groups, Message: msg})
	if err != nil {
		return err
	}
	return publishEvent(ctx, channelPrefix+msg.Type, payload)
}

// Run relays published messages into the local hub until ctx is done.
// ready, if not nil, is closed once the subscription is active.
func (b *RedisBroadcaster) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := subscribeEvents(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ready != nil {
			close(ready)
		}
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return errors.New("realtime subscription closed")
			}
			b.relay(ctx, m)
		}
	}
}

func (b *RedisBroadcaster) relay(ctx context.Context, m *goredis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
		logger.Warn(ctx, "Dropping malformed realtime payload", zap.String("channel", m.Channel), zap.Error(err))
		return
	}
	if err := b.hub.Broadcast(ctx, env.Groups, env.Message); err != nil {
		logger.Warn(ctx, "Failed to relay realtime message", zap.String("channel", m.Channel), zap.Error(err))
	}
}
