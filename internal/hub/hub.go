// Package hub implements the group fan-out bus: ephemeral, process-local
// broadcast groups with one group per conversation. Membership is never
// persisted, a restart drops every group and clients reconnect.
package hub

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chatService/internal/logger"
)

// Bus is the fan-out contract the connection session drives. Join and Leave
// are idempotent, Broadcast delivers to every current member of the group in
// FIFO order relative to other broadcasts on the same group and returns the
// number of members it enqueued to.
type Bus interface {
	Join(groupID string, client *Client, welcome ...[]byte)
	Leave(groupID string, client *Client)
	Broadcast(groupID string, payload []byte) int
}

// GroupForConversation derives the broadcast group name for a conversation.
func GroupForConversation(conversationID string) string {
	return fmt.Sprintf("chat_%s", conversationID)
}

type Hub struct {
	mu     sync.Mutex
	groups map[string]map[string]*Client
	log    zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[string]*Client),
		log:    logger.For("hub"),
	}
}

// Join adds the client to the group. Welcome payloads are enqueued to the
// joining client before it becomes a member, so a history snapshot is always
// observed ahead of any live broadcast. Joining twice is a no-op and does not
// re-send the welcome frames.
func (h *Hub) Join(groupID string, client *Client, welcome ...[]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[groupID]
	if group == nil {
		group = make(map[string]*Client)
		h.groups[groupID] = group
	}
	if _, member := group[client.ID]; member {
		return
	}
	for _, payload := range welcome {
		if err := client.Send(payload); err != nil {
			h.log.Warn().Str("group", groupID).Str("client", client.ID).
				Err(err).Msg("dropping client during welcome")
			return
		}
	}
	group[client.ID] = client
}

// Leave removes the client from the group. Removing an absent client is a
// no-op; the last member leaving drops the group entirely.
func (h *Hub) Leave(groupID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[groupID]
	if group == nil {
		return
	}
	delete(group, client.ID)
	if len(group) == 0 {
		delete(h.groups, groupID)
	}
}

// Broadcast enqueues payload to every member of the group. A member whose
// connection is gone is evicted without aborting delivery to the rest.
// Broadcasting to an empty group is a no-op.
func (h *Hub) Broadcast(groupID string, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[groupID]
	if len(group) == 0 {
		return 0
	}

	delivered := 0
	for id, client := range group {
		if err := client.Send(payload); err != nil {
			h.log.Warn().Str("group", groupID).Str("client", id).
				Err(err).Msg("evicting undeliverable client")
			delete(group, id)
			continue
		}
		delivered++
	}
	if len(group) == 0 {
		delete(h.groups, groupID)
	}
	return delivered
}

// Members reports the current size of a group.
func (h *Hub) Members(groupID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[groupID])
}

// Close tears down every tracked client and clears all memberships.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0)
	for _, group := range h.groups {
		for _, client := range group {
			clients = append(clients, client)
		}
	}
	h.groups = make(map[string]map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
