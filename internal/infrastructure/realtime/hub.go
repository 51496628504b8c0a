package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"rete.backend/internal/infrastructure/metrics"
)

const defaultClientBuffer = 32

// Broadcaster delivers a message to every client in any of groups
type Broadcaster interface {
	Broadcast(ctx context.Context, groups []string, msg Message) error
}

// Client is one authenticated connection registered in the hub
type Client struct {
	AccountID   uuid.UUID
	CommunityID uuid.UUID

	send   chan []byte
	groups []string
}

// NewClient creates a client with a bounded outgoing buffer
func NewClient(accountID, communityID uuid.UUID, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		AccountID:   accountID,
		CommunityID: communityID,
		send:        make(chan []byte, buffer),
		groups:      []string{AccountGroup(accountID), CommunityGroup(communityID)},
	}
}

// Messages returns the encoded frames queued for the client. The channel is
// closed when the client is unregistered.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub tracks connected clients by group and delivers to them without
// blocking: a client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]struct{}
	metrics *metrics.Metrics
}

// NewHub creates an empty hub
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{groups: make(map[string]map[*Client]struct{}), metrics: m}
}

// Register joins c to its account and community groups
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range c.groups {
		members, ok := h.groups[g]
		if !ok {
			members = make(map[*Client]struct{})
			h.groups[g] = members
		}
		members[c] = struct{}{}
	}
	h.metrics.ClientConnected()
}

// Unregister removes c from every group and closes its message channel
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, g := range c.groups {
		members, ok := h.groups[g]
		if !ok {
			continue
		}
		if _, ok := members[c]; ok {
			delete(members, c)
			removed = true
		}
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	if removed {
		close(c.send)
		h.metrics.ClientDisconnected()
	}
}

// GroupSize reports how many clients are in group
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Broadcast delivers msg once to each client in any of groups
func (h *Hub) Broadcast(_ context.Context, groups []string, msg Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.deliver(groups, msg.Type, frame)
	return nil
}

func (h *Hub) deliver(groups []string, event string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	for _, g := range groups {
		for c := range h.groups[g] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- frame:
				h.metrics.EventDelivered(event)
			default:
				h.metrics.EventDropped()
			}
		}
	}
}
