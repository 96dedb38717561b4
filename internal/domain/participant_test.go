package domain

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantEnqueueAfterClose(t *testing.T) {
	p := NewParticipant(uuid.New(), RolePatient, "Pat", false, 4)

	assert.True(t, p.EnqueueEvent(SignalMessage{Type: SignalUserConnected}))

	p.Close()
	p.Close()

	assert.False(t, p.EnqueueEvent(SignalMessage{Type: SignalUserConnected}))
	assert.Equal(t, ParticipantDisconnected, p.GetStatus())
}

func TestParticipantEnqueueDropsWhenFull(t *testing.T) {
	p := NewParticipant(uuid.New(), RoleDoctor, "Dr. Smith", true, 2)

	assert.True(t, p.EnqueueEvent(SignalMessage{Type: SignalOffer}))
	assert.True(t, p.EnqueueEvent(SignalMessage{Type: SignalAnswer}))
	assert.False(t, p.EnqueueEvent(SignalMessage{Type: SignalICECandidate}))
}

func dialTestSocket(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestParticipantCloseReleasesAttachedSocket(t *testing.T) {
	p := NewParticipant(uuid.New(), RolePatient, "Pat", false, 4)
	conn := dialTestSocket(t)

	p.AttachSocket(conn)
	p.Close()

	err := conn.WriteMessage(websocket.TextMessage, []byte("after close"))
	assert.Error(t, err)
}

func TestRoomPeersExcludesSelf(t *testing.T) {
	room := NewRoom(uuid.New())
	doctor := NewParticipant(uuid.New(), RoleDoctor, "Dr. Smith", true, 4)
	patient := NewParticipant(uuid.New(), RolePatient, "Pat", false, 4)

	room.Participants[doctor.UserID] = doctor
	room.Participants[patient.UserID] = patient

	peers := room.Peers(doctor.UserID)
	require.Len(t, peers, 1)
	assert.Same(t, patient, peers[0])

	assert.Len(t, room.Peers(uuid.Nil), 2)
	assert.Equal(t, 2, room.Size())
}

func TestConsultationRoleOf(t *testing.T) {
	c := NewConsultation(uuid.New(), uuid.New(), time.Now())

	role, ok := c.RoleOf(c.DoctorID)
	require.True(t, ok)
	assert.Equal(t, RoleDoctor, role)

	role, ok = c.RoleOf(c.PatientID)
	require.True(t, ok)
	assert.Equal(t, RolePatient, role)

	_, ok = c.RoleOf(uuid.New())
	assert.False(t, ok)
}
