package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/lib/logger/sl"
)

type graceKey struct {
	consultationID uuid.UUID
	userID         uuid.UUID
}

// SignalingService owns the join/leave lifecycle of consultation rooms and
// relays offer/answer/ICE-candidate payloads between their two participants.
// It never looks inside an SDP or a candidate.
type SignalingService struct {
	registry      *RoomRegistry
	consultations repository.ConsultationRepository
	log           *slog.Logger

	reconnectGrace time.Duration
	eventBuffer    int

	mu          sync.Mutex
	graceTimers map[graceKey]*time.Timer
}

func NewSignalingService(
	registry *RoomRegistry,
	consultations repository.ConsultationRepository,
	log *slog.Logger,
	reconnectGrace time.Duration,
	eventBuffer int,
) *SignalingService {
	if log == nil {
		log = slog.Default()
	}
	return &SignalingService{
		registry:       registry,
		consultations:  consultations,
		log:            log,
		reconnectGrace: reconnectGrace,
		eventBuffer:    eventBuffer,
		graceTimers:    make(map[graceKey]*time.Timer),
	}
}

// Join authorizes the user against the consultation record and registers it
// in the room. The initiator role is assigned here, server-side, from the
// booking data: the doctor always offers first, so both sides can never
// race into negotiation glare. Existing participants learn about the
// newcomer through user-connected, and the newcomer learns about them the
// same way, so whichever side is the initiator sees its peer and offers.
func (s *SignalingService) Join(ctx context.Context, consultationID, userID uuid.UUID, displayName string) (*domain.Participant, error) {
	const op = "service.signaling.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("consultation_id", consultationID.String()),
		slog.String("user_id", userID.String()),
	)

	consultation, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		log.Info("consultation lookup failed", sl.Err(err))
		return nil, err
	}
	if consultation.IsEnded() {
		return nil, ErrConsultationEnded
	}

	role, ok := consultation.RoleOf(userID)
	if !ok {
		log.Warn("join rejected, user not a consultation party")
		return nil, ErrUnauthorizedRoomAccess
	}

	participant := domain.NewParticipant(userID, role, displayName, role == domain.RoleDoctor, s.eventBuffer)

	replaced, err := s.registry.Join(consultationID, participant)
	if err != nil {
		log.Info("join rejected", sl.Err(err))
		return nil, err
	}
	if replaced != nil {
		// Reconnect: the old handle is superseded, not a third party.
		replaced.Close()
		log.Info("stale participant handle replaced")
	}
	s.stopGraceTimer(graceKey{consultationID, userID})

	if consultation.Status == domain.ConsultationScheduled {
		consultation.Status = domain.ConsultationActive
		if err := s.consultations.Update(ctx, consultation); err != nil {
			log.Error("failed to mark consultation active", sl.Err(err))
		}
	}

	for _, peer := range s.registry.Peers(consultationID, userID) {
		peer.EnqueueEvent(userConnectedEvent(consultationID, participant))
		participant.EnqueueEvent(userConnectedEvent(consultationID, peer))
	}

	log.Info("participant joined",
		"role", string(role),
		"initiator", participant.Initiator,
		"display_name", displayName,
	)
	return participant, nil
}

// Leave removes the participant immediately: explicit leaves carry no grace
// period. Idempotent.
func (s *SignalingService) Leave(ctx context.Context, consultationID, userID uuid.UUID) error {
	s.stopGraceTimer(graceKey{consultationID, userID})

	removed, remaining, ok := s.registry.Leave(consultationID, userID)
	if !ok {
		return nil
	}
	removed.Close()

	for _, peer := range remaining {
		peer.EnqueueEvent(userDisconnectedEvent(consultationID, userID))
	}

	s.log.Info("participant left",
		"consultation_id", consultationID.String(),
		"user_id", userID.String(),
	)
	return nil
}

// Disconnect handles a transport drop without an explicit leave. The peer is
// told immediately so its UI can react, but the room entry survives for the
// configured grace period: a rejoin within it upserts the handle and starts
// a fresh negotiation cycle instead of tearing the room down.
//
// The report carries the dropped connection's own handle. A rejoin replaces
// the registry entry before the replaced socket's read loop unwinds, so a
// drop report for a superseded handle must not touch the live one.
func (s *SignalingService) Disconnect(consultationID uuid.UUID, dropped *domain.Participant) {
	if dropped == nil {
		return
	}
	userID := dropped.UserID

	room, ok := s.registry.Room(consultationID)
	if !ok {
		return
	}
	current, ok := room.Participant(userID)
	if !ok || current != dropped {
		return
	}

	dropped.SetStatus(domain.ParticipantReconnecting)

	for _, peer := range s.registry.Peers(consultationID, userID) {
		peer.EnqueueEvent(userDisconnectedEvent(consultationID, userID))
	}

	s.log.Info("participant disconnected, grace period started",
		"consultation_id", consultationID.String(),
		"user_id", userID.String(),
		"grace", s.reconnectGrace.String(),
	)

	key := graceKey{consultationID, userID}
	s.mu.Lock()
	if t, ok := s.graceTimers[key]; ok {
		t.Stop()
	}
	s.graceTimers[key] = time.AfterFunc(s.reconnectGrace, func() {
		s.expireGrace(key, dropped)
	})
	s.mu.Unlock()
}

// expireGrace finalizes a disconnect whose grace period ran out. If the user
// rejoined in the meantime the registry holds a different handle and nothing
// is removed.
func (s *SignalingService) expireGrace(key graceKey, stale *domain.Participant) {
	s.mu.Lock()
	delete(s.graceTimers, key)
	s.mu.Unlock()

	room, ok := s.registry.Room(key.consultationID)
	if !ok {
		return
	}
	current, ok := room.Participant(key.userID)
	if !ok || current != stale {
		return
	}

	removed, _, ok := s.registry.Leave(key.consultationID, key.userID)
	if !ok {
		return
	}
	removed.Close()

	s.log.Info("reconnect grace expired, room entry removed",
		"consultation_id", key.consultationID.String(),
		"user_id", key.userID.String(),
	)
}

// HandleSignal relays a negotiation payload to the other participant of the
// room. A payload addressed to a room whose peer is already gone is dropped
// silently: the sender is not at fault and the situation resolves itself on
// the next join.
func (s *SignalingService) HandleSignal(ctx context.Context, consultationID, senderID uuid.UUID, msg *domain.SignalMessage) error {
	const op = "service.signaling.handle"
	if msg == nil {
		return errors.New("message is required")
	}

	switch msg.Type {
	case domain.SignalOffer, domain.SignalAnswer, domain.SignalICECandidate:
		peers := s.registry.Peers(consultationID, senderID)
		if len(peers) == 0 {
			s.log.Debug("stale signal dropped",
				"op", op,
				"consultation_id", consultationID.String(),
				"type", string(msg.Type),
			)
			return nil
		}

		forward := *msg
		forward.ConsultationID = consultationID.String()
		forward.SenderID = senderID.String()

		for _, peer := range peers {
			if !peer.EnqueueEvent(forward) {
				s.log.Debug("relay buffer full, event dropped",
					"op", op,
					"peer", peer.UserID.String(),
					"type", string(msg.Type),
				)
			}
		}
		return nil
	case domain.SignalJoinChatRoom:
		// Chat shares room membership with signaling; joining the room is
		// joining the chat. Accepted for wire compatibility.
		return nil
	case domain.SignalLeave:
		return s.Leave(ctx, consultationID, senderID)
	default:
		return errors.New("unsupported signal type: " + string(msg.Type))
	}
}

// EndConsultation is the explicit "end call" action. Reachable at any point
// of the call: it marks the booking record ended, evicts everyone from the
// room and closes their handles. Idempotent once ended.
func (s *SignalingService) EndConsultation(ctx context.Context, consultationID, byUserID uuid.UUID) error {
	const op = "service.signaling.end"
	log := s.log.With(
		slog.String("op", op),
		slog.String("consultation_id", consultationID.String()),
	)

	consultation, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return err
	}
	if _, ok := consultation.RoleOf(byUserID); !ok {
		return ErrUnauthorizedRoomAccess
	}

	if !consultation.IsEnded() {
		consultation.Status = domain.ConsultationEnded
		consultation.EndedAt = time.Now().UTC()
		if err := s.consultations.Update(ctx, consultation); err != nil {
			log.Error("failed to persist consultation end", sl.Err(err))
			return err
		}
	}

	participants := s.registry.Remove(consultationID)
	for _, p := range participants {
		s.stopGraceTimer(graceKey{consultationID, p.UserID})
		if p.UserID != byUserID {
			p.EnqueueEvent(userDisconnectedEvent(consultationID, byUserID))
		}
		p.Close()
	}

	log.Info("consultation ended", "ended_by", byUserID.String())
	return nil
}

func (s *SignalingService) stopGraceTimer(key graceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.graceTimers[key]; ok {
		t.Stop()
		delete(s.graceTimers, key)
	}
}

func userConnectedEvent(consultationID uuid.UUID, p *domain.Participant) domain.SignalMessage {
	return domain.SignalMessage{
		Type:           domain.SignalUserConnected,
		ConsultationID: consultationID.String(),
		SenderID:       p.UserID.String(),
		Payload: map[string]any{
			"userId":      p.UserID.String(),
			"role":        string(p.Role),
			"displayName": p.DisplayName,
		},
	}
}

func userDisconnectedEvent(consultationID, userID uuid.UUID) domain.SignalMessage {
	return domain.SignalMessage{
		Type:           domain.SignalUserDisconnected,
		ConsultationID: consultationID.String(),
		SenderID:       userID.String(),
		Payload: map[string]any{
			"userId": userID.String(),
		},
	}
}
