package hub

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// Packet is an inbound frame. The payload is decoded into an intent-specific
// type by the handler that owns the packet type.
type Packet struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutPacket is an outbound frame.
type OutPacket struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewOutPacket(t string, payload interface{}) *OutPacket {
	return &OutPacket{Type: t, Payload: payload}
}

func decodePacket(mt int, r io.Reader) (*Packet, error) {
	if mt != websocket.TextMessage {
		return nil, fmt.Errorf("unexpected message type: %d", mt)
	}

	var packet Packet
	if err := json.NewDecoder(r).Decode(&packet); err != nil {
		return nil, fmt.Errorf("json.Decoder.Decode: %w", err)
	}
	return &packet, nil
}

func encodePacket(f func(t int) (io.WriteCloser, error), packet *OutPacket) error {
	w, err := f(websocket.TextMessage)
	if err != nil {
		return fmt.Errorf("NextWriter: %w", err)
	}
	defer w.Close()

	if err := json.NewEncoder(w).Encode(packet); err != nil {
		return fmt.Errorf("json.Encoder.Encode: %w", err)
	}

	return nil
}
