package domain

import (
	"time"

	"github.com/pion/webrtc/v3"
)

type SignalType string

const (
	// Client -> server.
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice-candidate"
	SignalChatMessage  SignalType = "chat-message"
	SignalJoinChatRoom SignalType = "join-chat-room"
	SignalLeave        SignalType = "leave"

	// Server -> client.
	SignalUserConnected    SignalType = "user-connected"
	SignalUserDisconnected SignalType = "user-disconnected"
	SignalChatMessageSent  SignalType = "chat-message-sent"
	SignalError            SignalType = "error"
)

// SignalMessage is the wire envelope for everything exchanged over a
// consultation websocket. Offer/answer/candidate payloads are relayed
// verbatim; the server never inspects SDP or candidate contents.
type SignalMessage struct {
	Type           SignalType                 `json:"type"`
	ConsultationID string                     `json:"consultationId,omitempty"`
	SenderID       string                     `json:"senderId,omitempty"`
	SDP            *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate      *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Chat           *ChatPayload               `json:"message,omitempty"`
	Payload        map[string]any             `json:"payload,omitempty"`
	Error          string                     `json:"error,omitempty"`
}

// ChatPayload is the chat body carried inside a chat-message signal.
type ChatPayload struct {
	ID         string    `json:"id,omitempty"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}
