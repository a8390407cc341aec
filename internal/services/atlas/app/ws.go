package server

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/westmarch/atlas/internal/services/atlas/domain"
)

const (
	wsFrameTypeSubscribe   = "atlas.subscribe"
	wsFrameTypeUnsubscribe = "atlas.unsubscribe"
	wsFrameTypeSubscribed  = "atlas.subscribed"
	wsFrameTypeEvent       = "atlas.event"
	wsFrameTypeError       = "atlas.error"
)

const maxDecodeErrorsPerConn = 5

// wsFrame is the wire envelope for the subscription channel.
type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Event     *domain.Event   `json:"event,omitempty"`
}

type subscribePayload struct {
	CampaignID string `json:"campaign_id"`
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type:      wsFrameTypeError,
		RequestID: requestID,
		Code:      code,
		Message:   message,
	})
}

// handleWSConn serves one subscriber connection: clients send subscribe and
// unsubscribe frames and receive campaign events until they disconnect.
func handleWSConn(conn *websocket.Conn, hub *subscriptionHub) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	peer := newWSPeer(json.NewEncoder(conn))

	joined := make(map[string]*campaignRoom)
	defer func() {
		for _, room := range joined {
			room.leave(peer)
		}
	}()

	decodeErrors := 0
	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case wsFrameTypeSubscribe:
			handleSubscribeFrame(peer, hub, frame, joined)
		case wsFrameTypeUnsubscribe:
			handleUnsubscribeFrame(peer, frame, joined)
		default:
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func handleSubscribeFrame(peer *wsPeer, hub *subscriptionHub, frame wsFrame, joined map[string]*campaignRoom) {
	var payload subscribePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid subscribe payload")
		return
	}
	campaignID := strings.TrimSpace(payload.CampaignID)
	if campaignID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "campaign_id is required")
		return
	}

	if _, already := joined[campaignID]; !already {
		room := hub.room(campaignID)
		room.join(peer)
		joined[campaignID] = room
	}
	_ = peer.writeFrame(wsFrame{
		Type:      wsFrameTypeSubscribed,
		RequestID: frame.RequestID,
		Payload:   mustMarshal(subscribePayload{CampaignID: campaignID}),
	})
}

func handleUnsubscribeFrame(peer *wsPeer, frame wsFrame, joined map[string]*campaignRoom) {
	var payload subscribePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid unsubscribe payload")
		return
	}
	campaignID := strings.TrimSpace(payload.CampaignID)
	room, ok := joined[campaignID]
	if !ok {
		return
	}
	room.leave(peer)
	delete(joined, campaignID)
}

func mustMarshal(value any) json.RawMessage {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}
