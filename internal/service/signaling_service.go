package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/immxrtalbeast/peercall/internal/domain"
	"github.com/immxrtalbeast/peercall/internal/registry"
	"github.com/immxrtalbeast/peercall/lib/logger/sl"
)

type SignalingService struct {
	registry  *registry.Registry
	log       *slog.Logger
	queueSize int
}

func NewSignalingService(reg *registry.Registry, log *slog.Logger, queueSize int) *SignalingService {
	if log == nil {
		log = slog.Default()
	}
	return &SignalingService{
		registry:  reg,
		log:       log,
		queueSize: queueSize,
	}
}

// Connect registers a new user, tells it its identity, introduces it to the
// existing users both ways, and hands everyone a fresh roster. The newcomer
// gets its snapshot directly rather than through the broadcast.
func (s *SignalingService) Connect(name string) (*domain.User, error) {
	const op = "service.signaling.connect"

	if name == "" {
		return nil, registry.ErrNameRequired
	}

	existing := s.registry.List()

	// The join burst (self_id, one user_joined per existing user, the
	// roster) is queued before the connection's writer starts draining,
	// so the queue must hold all of it.
	queueSize := s.queueSize
	if min := len(existing) + 8; queueSize < min {
		queueSize = min
	}

	user := domain.NewUser(name, queueSize)
	if err := s.registry.Add(user); err != nil {
		return nil, err
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", user.ID),
	)
	log.Info("user connected", "name", user.Name)

	s.send(user.ID, domain.SignalMessage{
		Type:   domain.TypeSelfID,
		UserID: user.ID,
	})

	for i := range existing {
		s.send(user.ID, domain.SignalMessage{
			Type: domain.TypeUserJoined,
			User: &existing[i],
		})
	}

	summary := user.Summary()
	s.broadcast(domain.SignalMessage{
		Type: domain.TypeUserJoined,
		User: &summary,
	}, user.ID)

	s.send(user.ID, domain.SignalMessage{
		Type:  domain.TypeUsersList,
		Users: s.registry.List(),
	})
	s.broadcastUsersList(user.ID)

	return user, nil
}

// Disconnect tears down one connection. It is idempotent and runs on every
// exit path: the pairing is cleared first so the partner hears call_ended
// exactly once, then the user leaves the registry, then the remaining users
// hear user_left.
func (s *SignalingService) Disconnect(userID string) {
	const op = "service.signaling.disconnect"

	if partner, ok := s.registry.Unpair(userID); ok {
		// Best effort: if the partner is gone too, its own disconnect
		// already cleaned up.
		s.send(partner, domain.SignalMessage{
			Type:   domain.TypeCallEnded,
			Sender: userID,
		})
	}

	user, removed := s.registry.Remove(userID)
	if !removed {
		return
	}

	s.log.Info("user disconnected",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("name", user.Name),
	)

	s.broadcast(domain.SignalMessage{
		Type:   domain.TypeUserLeft,
		UserID: userID,
	}, "")
	s.broadcastUsersList("")
}

// HandleSignal routes one inbound message from senderID. Protocol errors are
// reported back to the sender as error messages; routing misses on advisory
// messages are silently ignored.
func (s *SignalingService) HandleSignal(senderID string, message domain.SignalMessage) {
	const op = "service.signaling.handle"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", senderID),
		slog.String("type", message.Type),
	)
	log.Debug("new signal", "target", message.Target)

	switch message.Type {
	case domain.TypeIncomingCall:
		sender, ok := s.registry.Get(senderID)
		if !ok {
			return
		}
		caller := sender.Summary()
		err := s.send(message.Target, domain.SignalMessage{
			Type: domain.TypeIncomingCall,
			User: &caller,
		})
		if errors.Is(err, registry.ErrUserNotFound) {
			s.sendError(senderID, fmt.Sprintf("target not active: %s", message.Target))
		}

	case domain.TypeCancelCall:
		s.send(message.Target, domain.SignalMessage{
			Type:   domain.TypeCancelCall,
			Callee: senderID,
		})

	case domain.TypeOffer:
		if message.SDP == "" {
			s.sendError(senderID, offerErrorDetails(message))
			return
		}
		err := s.send(message.Target, domain.SignalMessage{
			Type:   domain.TypeOffer,
			SDP:    message.SDP,
			Sender: senderID,
		})
		if err != nil {
			s.sendError(senderID, offerErrorDetails(message))
			return
		}
		// The target can disconnect between the send and here; Pair
		// re-checks membership under its own lock so the sender is never
		// left paired with a departed identity.
		if err := s.registry.Pair(senderID, message.Target); err != nil {
			s.sendError(senderID, offerErrorDetails(message))
		}

	case domain.TypeAnswer:
		s.send(message.Target, domain.SignalMessage{
			Type:   domain.TypeAnswer,
			SDP:    message.SDP,
			Callee: senderID,
		})

	case domain.TypeICECandidate:
		partner, ok := s.registry.PartnerOf(senderID)
		if !ok {
			return
		}
		s.send(partner, domain.SignalMessage{
			Type:      domain.TypeICECandidate,
			Candidate: message.Candidate,
			Sender:    senderID,
		})

	case domain.TypeCallRejected:
		s.send(message.Target, domain.SignalMessage{
			Type:   domain.TypeCallRejected,
			Callee: senderID,
		})

	case domain.TypeCallEnded:
		partner, ok := s.registry.Unpair(senderID)
		if !ok {
			return
		}
		s.send(partner, domain.SignalMessage{
			Type:   domain.TypeCallEnded,
			Sender: senderID,
		})

	case domain.TypeChangeName:
		if err := s.registry.Rename(senderID, message.Name); err != nil {
			log.Info("rename rejected", sl.Err(err))
			s.sendError(senderID, err.Error())
			return
		}
		s.broadcastUsersList("")

	default:
		// Server-emitted types arriving inbound carry no meaning.
		log.Debug("ignoring signal type")
	}
}

func (s *SignalingService) ListUsers() []domain.UserSummary {
	return s.registry.List()
}

// broadcastUsersList fans the current roster out to every connected user
// except exclude. The snapshot is taken once, before any send.
func (s *SignalingService) broadcastUsersList(exclude string) {
	snapshot := s.registry.List()
	msg := domain.SignalMessage{
		Type:  domain.TypeUsersList,
		Users: snapshot,
	}

	var dead []string
	for _, u := range snapshot {
		if u.ID == exclude {
			continue
		}
		if err := s.registry.Send(u.ID, msg); errors.Is(err, registry.ErrConnectionDead) {
			dead = append(dead, u.ID)
		}
	}
	for _, id := range dead {
		s.Disconnect(id)
	}
}

// broadcast sends msg to every connected user except exclude. Dead
// connections are collected and torn down after the fan-out so the roster
// snapshot stays consistent for every recipient.
func (s *SignalingService) broadcast(msg domain.SignalMessage, exclude string) {
	var dead []string
	for _, u := range s.registry.List() {
		if u.ID == exclude {
			continue
		}
		if err := s.registry.Send(u.ID, msg); errors.Is(err, registry.ErrConnectionDead) {
			dead = append(dead, u.ID)
		}
	}
	for _, id := range dead {
		s.Disconnect(id)
	}
}

// send delivers to a single user; a connection that stopped draining is
// treated exactly like a disconnect, once.
func (s *SignalingService) send(userID string, msg domain.SignalMessage) error {
	err := s.registry.Send(userID, msg)
	if errors.Is(err, registry.ErrConnectionDead) {
		s.log.Warn("dropping unresponsive connection",
			slog.String("user_id", userID),
			slog.String("type", msg.Type),
		)
		s.Disconnect(userID)
	}
	return err
}

func (s *SignalingService) sendError(userID string, details string) {
	s.send(userID, domain.SignalMessage{
		Type:    domain.TypeError,
		Details: details,
	})
}

func offerErrorDetails(message domain.SignalMessage) string {
	return fmt.Sprintf("target_id: %s, sdp: %s", message.Target, message.SDP)
}
