package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/medatlas/teleconsult/internal/domain"
	pion "github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialRoom(t *testing.T, server *httptest.Server, consultationID, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/api/consultations/" + consultationID + "/ws?token=" + token

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.SignalMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg domain.SignalMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebsocketSignalingFlow(t *testing.T) {
	f := newAPIFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	doctorID := uuid.New()
	patientID := uuid.New()
	consultation := createConsultation(t, f, doctorID, patientID)

	doctorConn := dialRoom(t, server, consultation, f.token(t, doctorID, "Dr. Smith"))
	patientConn := dialRoom(t, server, consultation, f.token(t, patientID, "Pat"))

	// Both sides learn about each other.
	toDoctor := readFrame(t, doctorConn)
	assert.Equal(t, domain.SignalUserConnected, toDoctor.Type)
	assert.Equal(t, patientID.String(), toDoctor.SenderID)

	toPatient := readFrame(t, patientConn)
	assert.Equal(t, domain.SignalUserConnected, toPatient.Type)
	assert.Equal(t, doctorID.String(), toPatient.SenderID)
	assert.Equal(t, "doctor", toPatient.Payload["role"])

	// The doctor, as initiator, opens negotiation.
	require.NoError(t, doctorConn.WriteJSON(domain.SignalMessage{
		Type: domain.SignalOffer,
		SDP:  &pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0"},
	}))

	offer := readFrame(t, patientConn)
	assert.Equal(t, domain.SignalOffer, offer.Type)
	assert.Equal(t, doctorID.String(), offer.SenderID)
	require.NotNil(t, offer.SDP)
	assert.Equal(t, "v=0", offer.SDP.SDP)

	require.NoError(t, patientConn.WriteJSON(domain.SignalMessage{
		Type: domain.SignalAnswer,
		SDP:  &pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0"},
	}))
	assert.Equal(t, domain.SignalAnswer, readFrame(t, doctorConn).Type)

	require.NoError(t, patientConn.WriteJSON(domain.SignalMessage{
		Type:      domain.SignalICECandidate,
		Candidate: &pion.ICECandidateInit{Candidate: "candidate:1 1 udp 2122260223 192.0.2.1 54321 typ host"},
	}))
	ice := readFrame(t, doctorConn)
	assert.Equal(t, domain.SignalICECandidate, ice.Type)
	require.NotNil(t, ice.Candidate)
}

func TestWebsocketChatRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	doctorID := uuid.New()
	patientID := uuid.New()
	consultation := createConsultation(t, f, doctorID, patientID)

	doctorConn := dialRoom(t, server, consultation, f.token(t, doctorID, "Dr. Smith"))
	patientConn := dialRoom(t, server, consultation, f.token(t, patientID, "Pat"))
	readFrame(t, doctorConn)
	readFrame(t, patientConn)

	require.NoError(t, patientConn.WriteJSON(domain.SignalMessage{
		Type: domain.SignalChatMessage,
		Chat: &domain.ChatPayload{Text: "I have a headache"},
	}))

	ack := readFrame(t, patientConn)
	assert.Equal(t, domain.SignalChatMessageSent, ack.Type)
	assert.Equal(t, true, ack.Payload["success"])
	assert.NotEmpty(t, ack.Payload["messageId"])

	delivered := readFrame(t, doctorConn)
	assert.Equal(t, domain.SignalChatMessage, delivered.Type)
	require.NotNil(t, delivered.Chat)
	assert.Equal(t, "I have a headache", delivered.Chat.Text)
	assert.Equal(t, patientID.String(), delivered.Chat.Sender)
	assert.Equal(t, "Pat", delivered.Chat.SenderName)
}

func TestWebsocketRejectsOutsider(t *testing.T) {
	f := newAPIFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	consultation := createConsultation(t, f, uuid.New(), uuid.New())

	// The upgrade itself succeeds; the rejection arrives as an error frame.
	conn := dialRoom(t, server, consultation, f.token(t, uuid.New(), "stranger"))

	frame := readFrame(t, conn)
	assert.Equal(t, domain.SignalError, frame.Type)
	assert.Equal(t, "not authorized for this consultation", frame.Error)
}

func TestWebsocketLeaveNotifiesPeer(t *testing.T) {
	f := newAPIFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	doctorID := uuid.New()
	patientID := uuid.New()
	consultation := createConsultation(t, f, doctorID, patientID)

	doctorConn := dialRoom(t, server, consultation, f.token(t, doctorID, "Dr. Smith"))
	patientConn := dialRoom(t, server, consultation, f.token(t, patientID, "Pat"))
	readFrame(t, doctorConn)
	readFrame(t, patientConn)

	require.NoError(t, patientConn.WriteJSON(domain.SignalMessage{Type: domain.SignalLeave}))

	gone := readFrame(t, doctorConn)
	assert.Equal(t, domain.SignalUserDisconnected, gone.Type)
	assert.Equal(t, patientID.String(), gone.SenderID)
}

func createConsultation(t *testing.T, f *apiFixture, doctorID, patientID uuid.UUID) string {
	t.Helper()

	consultation := domain.NewConsultation(doctorID, patientID, time.Now())
	require.NoError(t, f.consultations.Create(context.Background(), consultation))
	return consultation.ID.String()
}
