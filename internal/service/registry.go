package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
)

// RoomRegistry is the in-memory map from consultation id to the live room.
// It is the only shared mutable structure of the signaling core and every
// mutation happens under its lock. The registry knows nothing about
// authorization or transports; it only enforces membership rules:
// at most two distinct user ids per room, reconnects upsert the stale
// entry for the same user id, rooms disappear with their last participant.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[uuid.UUID]*domain.Room),
	}
}

// Join registers the participant under its consultation room, creating the
// room on first join. When an entry for the same user id already exists it
// is replaced and returned so the caller can close the stale handle; a
// third distinct user id gets ErrRoomFull.
func (r *RoomRegistry) Join(consultationID uuid.UUID, p *domain.Participant) (*domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[consultationID]
	if !ok {
		room = domain.NewRoom(consultationID)
		r.rooms[consultationID] = room
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	replaced := room.Participants[p.UserID]
	if replaced == nil && len(room.Participants) >= domain.MaxRoomParticipants {
		return nil, ErrRoomFull
	}

	room.Participants[p.UserID] = p
	return replaced, nil
}

// Leave removes the user's entry. Repeated leaves are no-ops. The removed
// participant and the ones still in the room are returned so the caller
// can close the handle and notify the remaining peer. An emptied room is
// deleted; a later join simply creates a fresh one.
func (r *RoomRegistry) Leave(consultationID, userID uuid.UUID) (*domain.Participant, []*domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[consultationID]
	if !ok {
		return nil, nil, false
	}

	room.Mutex.Lock()
	removed, ok := room.Participants[userID]
	if !ok {
		room.Mutex.Unlock()
		return nil, nil, false
	}

	delete(room.Participants, userID)
	remaining := make([]*domain.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		remaining = append(remaining, p)
	}
	empty := len(room.Participants) == 0
	room.Mutex.Unlock()

	if empty {
		delete(r.rooms, consultationID)
	}

	return removed, remaining, true
}

// Peers returns the other participants of a room. Lookups are always scoped
// by consultation id; a message can never reach another room through here.
func (r *RoomRegistry) Peers(consultationID, excludingUserID uuid.UUID) []*domain.Participant {
	r.mu.RLock()
	room, ok := r.rooms[consultationID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	return room.Peers(excludingUserID)
}

// Room returns the live room entry, if any.
func (r *RoomRegistry) Room(consultationID uuid.UUID) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[consultationID]
	return room, ok
}

// Remove tears the whole room down and returns whoever was still inside.
func (r *RoomRegistry) Remove(consultationID uuid.UUID) []*domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[consultationID]
	if !ok {
		return nil
	}
	delete(r.rooms, consultationID)

	room.Mutex.RLock()
	defer room.Mutex.RUnlock()

	participants := make([]*domain.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		participants = append(participants, p)
	}
	return participants
}
