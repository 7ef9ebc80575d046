package realtime

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event names carried in Frame.Event.
const (
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventPresence       = "presence"
	EventError          = "error"
)

// Frame is the envelope of every realtime message in both directions.
type Frame struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

// RoomRef is the payload of joinRoom and leaveRoom.
type RoomRef struct {
	ChatroomID string `json:"chatroomId"`
}

// Presence lists the users currently connected to a room.
type Presence struct {
	ChatroomID string   `json:"chatroomId"`
	Online     []string `json:"online"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode builds the wire form of a frame carrying data.
func Encode(event string, data any) ([]byte, error) {
	frame := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

// Decode parses a frame; the payload stays raw until Bind is called.
func Decode(b []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(b, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return frame, nil
}

// Bind unmarshals the frame payload into v.
func (f Frame) Bind(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%s: empty payload", f.Event)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%s: %w", f.Event, err)
	}
	return nil
}
