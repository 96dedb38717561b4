package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

type ParticipantStatus string

const (
	ParticipantConnected    ParticipantStatus = "connected"
	ParticipantReconnecting ParticipantStatus = "reconnecting"
	ParticipantDisconnected ParticipantStatus = "disconnected"
)

// Participant is a live connection registered in a room. Participants are
// keyed by UserID, not by socket, so a reconnect with the same user id
// supersedes the stale handle instead of counting as a third party.
type Participant struct {
	UserID      uuid.UUID
	Role        Role
	DisplayName string
	Initiator   bool
	Status      ParticipantStatus
	JoinedAt    time.Time
	LastSeen    time.Time
	Mutex       sync.RWMutex
	Socket      *websocket.Conn
	Events      chan SignalMessage
}

func NewParticipant(userID uuid.UUID, role Role, displayName string, initiator bool, eventBuffer int) *Participant {
	if eventBuffer <= 0 {
		eventBuffer = 16
	}
	now := time.Now().UTC()
	return &Participant{
		UserID:      userID,
		Role:        role,
		DisplayName: displayName,
		Initiator:   initiator,
		Status:      ParticipantConnected,
		JoinedAt:    now,
		LastSeen:    now,
		Events:      make(chan SignalMessage, eventBuffer),
	}
}

// AttachSocket publishes the transport behind this handle. Taken under the
// lock: the handle is already visible to the registry when the controller
// attaches the upgraded connection, and Close reads Socket under the same
// lock.
func (p *Participant) AttachSocket(conn *websocket.Conn) {
	p.Mutex.Lock()
	defer p.Mutex.Unlock()
	p.Socket = conn
}

func (p *Participant) Touch() {
	p.Mutex.Lock()
	defer p.Mutex.Unlock()
	p.LastSeen = time.Now().UTC()
}

// EnqueueEvent hands an event to the participant's writer without blocking
// the relay. A full buffer means a stalled socket; the event is dropped.
// Events sent after Close are dropped, not panics.
func (p *Participant) EnqueueEvent(event SignalMessage) bool {
	p.Mutex.RLock()
	defer p.Mutex.RUnlock()

	if p.Events == nil {
		return false
	}
	select {
	case p.Events <- event:
		return true
	default:
		return false
	}
}

func (p *Participant) SetStatus(status ParticipantStatus) {
	p.Mutex.Lock()
	defer p.Mutex.Unlock()
	p.Status = status
}

func (p *Participant) GetStatus() ParticipantStatus {
	p.Mutex.RLock()
	defer p.Mutex.RUnlock()
	return p.Status
}

// Close releases the connection resources. Safe to call more than once.
func (p *Participant) Close() {
	p.Mutex.Lock()
	defer p.Mutex.Unlock()

	p.Status = ParticipantDisconnected
	if p.Events != nil {
		close(p.Events)
		p.Events = nil
	}
	if p.Socket != nil {
		p.Socket.Close()
		p.Socket = nil
	}
}
