package bridge

import "encoding/json"

// Frame is the envelope for every message on the dashboard WebSocket, in
// both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`

	// subscribe fields, client -> bridge only
	Instrument  string `json:"instrument,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

const (
	frameSubscribe = "subscribe"
	frameTick      = "tick"
	frameSnapshot  = "snapshot"
	frameHeadline  = "headline"
	frameSignal    = "signal"
	frameStatus    = "status"
)

// StatusData reports upstream feed state transitions to the client.
type StatusData struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusError        = "error"
)

func marshalFrame(frameType string, v any) []byte {
	data, _ := json.Marshal(v)
	b, _ := json.Marshal(Frame{Type: frameType, Data: data})
	return b
}
