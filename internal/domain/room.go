package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxRoomParticipants bounds a teleconsultation room to its two parties.
// A third distinct user id is rejected at join time, never registered.
const MaxRoomParticipants = 2

// Room groups the live participants of one consultation for signaling and
// chat dispatch. Rooms exist only in memory: they are created on the first
// join and dropped when the last participant leaves or the consultation is
// ended. Chat history outlives them in the store, keyed by the same id.
type Room struct {
	Mutex          sync.RWMutex
	ConsultationID uuid.UUID
	Participants   map[uuid.UUID]*Participant
	CreatedAt      time.Time
}

func NewRoom(consultationID uuid.UUID) *Room {
	return &Room{
		ConsultationID: consultationID,
		Participants:   make(map[uuid.UUID]*Participant),
		CreatedAt:      time.Now().UTC(),
	}
}

// Participant returns the registered entry for a user id, if any.
func (r *Room) Participant(userID uuid.UUID) (*Participant, bool) {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	p, ok := r.Participants[userID]
	return p, ok
}

// Peers returns every participant except the excluded user id.
func (r *Room) Peers(excludingUserID uuid.UUID) []*Participant {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()

	peers := make([]*Participant, 0, len(r.Participants))
	for id, p := range r.Participants {
		if id == excludingUserID {
			continue
		}
		peers = append(peers, p)
	}
	return peers
}

func (r *Room) Size() int {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return len(r.Participants)
}
