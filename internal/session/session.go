// Package session models the lifecycle a teleconsultation connection moves
// through, from transport handshake to released media:
//
//	Connecting -> Joined -> Negotiating -> Active -> (Reconnecting | Ended)
//
// The machine is transport-agnostic. The signaling server drives one per
// websocket from the events it can observe; a client drives its own from
// peer-connection callbacks. Ending the call is legal from every state.
package session

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v3"
)

type State string

const (
	StateConnecting   State = "connecting"
	StateJoined       State = "joined"
	StateNegotiating  State = "negotiating"
	StateActive       State = "active"
	StateReconnecting State = "reconnecting"
	StateEnded        State = "ended"
)

var ErrInvalidTransition = errors.New("invalid session state transition")

var transitions = map[State][]State{
	StateConnecting:   {StateJoined},
	StateJoined:       {StateNegotiating, StateReconnecting},
	StateNegotiating:  {StateActive, StateReconnecting},
	StateActive:       {StateNegotiating, StateReconnecting},
	StateReconnecting: {StateNegotiating},
}

// Session tracks one connection's state plus the ICE candidates that arrive
// before the remote description does. Candidates carry no ordering
// guarantee, so early arrivals are buffered and replayed the moment the
// description lands; none are lost.
type Session struct {
	mu        sync.Mutex
	state     State
	initiator bool

	remoteSet bool
	pending   []webrtc.ICECandidateInit
	apply     func(webrtc.ICECandidateInit) error
}

// New creates a session in Connecting. applyCandidate receives each
// candidate once the remote description is set; nil is allowed when the
// holder only tracks state.
func New(initiator bool, applyCandidate func(webrtc.ICECandidateInit) error) *Session {
	return &Session{
		state:     StateConnecting,
		initiator: initiator,
		apply:     applyCandidate,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Initiator() bool {
	return s.initiator
}

// Joined marks successful registration in the room registry.
func (s *Session) Joined() error {
	return s.transition(StateJoined)
}

// Negotiating marks an offer/answer exchange in flight. From Reconnecting
// this is the rejoin path: negotiation state is wiped because the previous
// SDP exchange is never assumed to have survived the transport drop.
func (s *Session) Negotiating() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReconnecting {
		s.remoteSet = false
		s.pending = nil
	}
	return s.transitionLocked(StateNegotiating)
}

// Activated marks media flowing (remote track received).
func (s *Session) Activated() error {
	return s.transition(StateActive)
}

// Disconnected marks a transport drop inside the reconnect grace period.
func (s *Session) Disconnected() error {
	return s.transition(StateReconnecting)
}

// GraceExpired finalizes a reconnect that never happened.
func (s *Session) GraceExpired() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReconnecting {
		return ErrInvalidTransition
	}
	s.endLocked()
	return nil
}

// End terminates the session. Always legal, from any state, and idempotent:
// a participant may end the call mid-negotiation or while waiting for a
// peer that never shows up.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
}

func (s *Session) endLocked() {
	s.state = StateEnded
	s.remoteSet = false
	s.pending = nil
}

// SetRemoteDescription records that the remote SDP is in place and drains
// every buffered candidate into the apply callback, in arrival order.
func (s *Session) SetRemoteDescription(_ webrtc.SessionDescription) error {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.remoteSet = true
	drained := s.pending
	s.pending = nil
	apply := s.apply
	s.mu.Unlock()

	if apply == nil {
		return nil
	}
	for _, candidate := range drained {
		if err := apply(candidate); err != nil {
			return err
		}
	}
	return nil
}

// AddICECandidate applies the candidate if the remote description is set
// and buffers it otherwise.
func (s *Session) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if !s.remoteSet {
		s.pending = append(s.pending, candidate)
		s.mu.Unlock()
		return nil
	}
	apply := s.apply
	s.mu.Unlock()

	if apply == nil {
		return nil
	}
	return apply(candidate)
}

// PendingCandidates reports how many candidates wait for the remote
// description.
func (s *Session) PendingCandidates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Session) transitionLocked(to State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return ErrInvalidTransition
}
