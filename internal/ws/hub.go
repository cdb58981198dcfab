// Package ws adapts the interview core to a WebSocket wire. One connection
// may join any number of session rooms; the orchestrator pushes events into
// rooms through the Hub's EventSink implementation.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{rooms: map[string]map[*Client]bool{}, log: log}
}

// Emit fans an orchestrator event out to every connection in the session
// room. Slow consumers are dropped rather than blocking the core.
func (h *Hub) Emit(sessionID, event string, payload interface{}) {
	h.broadcast(sessionID, Event{
		Kind:      kindEvent,
		Event:     event,
		SessionID: sessionID,
		Data:      sanitizeEvent(payload),
	}, nil)
}

// broadcast sends ev to the room, skipping exclude if non-nil.
func (h *Hub) broadcast(sessionID string, ev Event, exclude *Client) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.log.Sugar().Errorw("encode event", "event", ev.Event, "err", err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		if c != exclude {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(raw) {
			h.log.Sugar().Warnw("dropping slow ws consumer", "session_id", sessionID)
			c.closeSlow()
		}
	}
}

func (h *Hub) join(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = map[*Client]bool{}
	}
	h.rooms[sessionID][c] = true
	c.rooms[sessionID] = true
}

// leaveAll detaches a disconnecting client from every room. The sessions
// themselves keep running; the idle sweeper handles true abandonment.
func (h *Hub) leaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID := range c.rooms {
		delete(h.rooms[sessionID], c)
		if len(h.rooms[sessionID]) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	c.rooms = map[string]bool{}
}

// roomSize is a test hook.
func (h *Hub) roomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}
