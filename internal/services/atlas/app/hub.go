package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/westmarch/atlas/internal/services/atlas/domain"
)

// wsPeer serializes writes to one websocket client.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// campaignRoom tracks the subscribers of one campaign's event feed.
type campaignRoom struct {
	mu          sync.Mutex
	campaignID  string
	subscribers map[*wsPeer]struct{}
}

func newCampaignRoom(campaignID string) *campaignRoom {
	return &campaignRoom{
		campaignID:  campaignID,
		subscribers: make(map[*wsPeer]struct{}),
	}
}

func (r *campaignRoom) join(peer *wsPeer) {
	r.mu.Lock()
	r.subscribers[peer] = struct{}{}
	r.mu.Unlock()
}

func (r *campaignRoom) leave(peer *wsPeer) {
	r.mu.Lock()
	delete(r.subscribers, peer)
	r.mu.Unlock()
}

func (r *campaignRoom) snapshotSubscribers() []*wsPeer {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers := make([]*wsPeer, 0, len(r.subscribers))
	for peer := range r.subscribers {
		peers = append(peers, peer)
	}
	return peers
}

// subscriptionHub fans location events out to per-campaign subscriber sets.
// Delivery is best effort and at most once: a peer that cannot be written
// to is dropped from the room and must refetch state after reconnecting.
type subscriptionHub struct {
	mu    sync.Mutex
	rooms map[string]*campaignRoom
}

func newSubscriptionHub() *subscriptionHub {
	return &subscriptionHub{rooms: make(map[string]*campaignRoom)}
}

func (h *subscriptionHub) room(campaignID string) *campaignRoom {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[campaignID]
	if ok {
		return room
	}
	room = newCampaignRoom(campaignID)
	h.rooms[campaignID] = room
	return room
}

func (h *subscriptionHub) lookup(campaignID string) *campaignRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[campaignID]
}

// Broadcast delivers one event to every subscriber of the campaign. It
// never reports failure to the caller; the mutation behind the event is
// already durable.
func (h *subscriptionHub) Broadcast(campaignID string, event domain.Event) {
	room := h.lookup(campaignID)
	if room == nil {
		return
	}

	frame := wsFrame{Type: wsFrameTypeEvent, Event: &event}
	for _, peer := range room.snapshotSubscribers() {
		if err := peer.writeFrame(frame); err != nil {
			log.Printf("atlas: drop subscriber campaign=%s event=%s: %v", campaignID, event.Name, err)
			room.leave(peer)
		}
	}
}
