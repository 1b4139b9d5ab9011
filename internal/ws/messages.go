package ws

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindChat   Kind = "chat"
	KindSystem Kind = "system"
	KindError  Kind = "error"
)

const (
	MaxTextLength = 2000
	systemSender  = "system"
)

// ──────────────────────────── Inbound ─────────────────────────────────────────

// InMessage is a chat frame sent by a client, e.g. {"type":"chat","text":"hi"}.
// A missing type means "chat".
type InMessage struct {
	Type Kind   `json:"type" validate:"omitempty,eq=chat"`
	Text string `json:"text" validate:"required,max=2000"`
}

// ──────────────────────────── Outbound ────────────────────────────────────────

// OutMessage is what the registry fans out to a room.
type OutMessage struct {
	Type   Kind   `json:"type"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Room   string `json:"room"`
}

func ChatMessage(sender, room, text string) OutMessage {
	return OutMessage{Type: KindChat, Sender: sender, Text: text, Room: room}
}

func JoinedMessage(identity, room string) OutMessage {
	return OutMessage{Type: KindSystem, Sender: systemSender, Text: fmt.Sprintf("%s joined", identity), Room: room}
}

func LeftMessage(identity, room string) OutMessage {
	return OutMessage{Type: KindSystem, Sender: systemSender, Text: fmt.Sprintf("%s left", identity), Room: room}
}

func (m OutMessage) Encode() ([]byte, error) { return json.Marshal(m) }

// ErrorBody is sent to the originating client only when its frame is rejected.
type ErrorBody struct {
	Type  Kind   `json:"type"`
	Error string `json:"error"`
}
