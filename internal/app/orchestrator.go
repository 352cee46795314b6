package app

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/metrics"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// Fatal frame errors. The transport maps each to a close reason and
// drops the connection.
var (
	ErrFrameOversize = errors.New("frame exceeds size limit")
	ErrBadFrame      = errors.New("malformed frame")
)

// ServiceOptions wires the frame pipeline.
type ServiceOptions struct {
	Registry       *Registry
	Rooms          *RoomManager
	Gate           JoinGate
	Metrics        *metrics.Metrics
	Clock          core.Clock
	Rate           RateConfig
	MaxFrameBytes  int
	MaxSignalBytes int
	ShutdownDrain  time.Duration
}

// Service sits between the transport and the rooms: it owns session
// lifecycle, frame admission (shape, size, rate) and join/leave flow.
// Room semantics stay inside core.Room.
type Service struct {
	reg            *Registry
	rooms          *RoomManager
	gate           JoinGate
	met            *metrics.Metrics
	clock          core.Clock
	rate           RateConfig
	maxFrameBytes  int
	maxSignalBytes int
	drain          time.Duration
	log            zerolog.Logger
}

func NewService(opts ServiceOptions) *Service {
	gate := opts.Gate
	if gate == nil {
		gate = OpenGate{}
	}
	return &Service{
		reg:            opts.Registry,
		rooms:          opts.Rooms,
		gate:           gate,
		met:            opts.Metrics,
		clock:          opts.Clock,
		rate:           opts.Rate,
		maxFrameBytes:  opts.MaxFrameBytes,
		maxSignalBytes: opts.MaxSignalBytes,
		drain:          opts.ShutdownDrain,
		log:            log.With().Str("module", "app.service").Logger(),
	}
}

// Connect registers a fresh transport connection and mints its session.
func (s *Service) Connect(conn core.SignalConnection) (*domain.Session, error) {
	sess, err := s.reg.Bind(conn, NewRateLimiter(s.rate), s.clock.NowMillis())
	if err != nil {
		return nil, err
	}
	s.met.SessionUp()
	return sess, nil
}

// Disconnect tears the session down after its read loop has exited.
func (s *Service) Disconnect(sid domain.SessionID, reason string) {
	e, ok := s.reg.entry(sid)
	if !ok {
		return
	}
	if e.Sess.RoomID != "" {
		s.rooms.Leave(e.Sess.RoomID, sid, reason)
	}
	if s.reg.Unbind(sid) {
		s.met.SessionDown()
	}
}

// HandleFrame runs one raw frame through the admission pipeline. A
// non-nil return is fatal for the connection; recoverable problems are
// answered with an error frame instead.
func (s *Service) HandleFrame(sid domain.SessionID, raw []byte) error {
	e, ok := s.reg.entry(sid)
	if !ok {
		return ErrUnknownSession
	}

	msg, err := protocol.DecodeInbound(raw)
	if err != nil {
		return s.rejectFrame(e, err)
	}
	s.met.MsgIn(msg.Kind())

	switch msg.Kind() {
	case protocol.KindSendingSignal, protocol.KindReturningSignal:
		// Relay blobs get their own budget; everything else must be small.
		if signalLen(msg) > s.maxSignalBytes {
			s.met.ValidationFailure()
			s.sendError(e, protocol.ErrKindPayloadTooLarge, "signal payload too large")
			return nil
		}
	default:
		if len(raw) > s.maxFrameBytes {
			return ErrFrameOversize
		}
	}

	if !e.Limiter.Allow(msg.Kind(), time.Now()) {
		s.met.RateLimited()
		s.sendError(e, protocol.ErrKindRateLimited, "message budget exceeded")
		return nil
	}

	switch t := msg.(type) {
	case protocol.Ping:
		s.sendFrame(e, protocol.Pong{Type: protocol.KindPong}, protocol.KindPong)
		return nil
	case protocol.JoinRoom:
		s.handleJoin(sid, e, t)
		return nil
	case protocol.UserLeaving:
		if e.Sess.RoomID != "" {
			s.rooms.Leave(e.Sess.RoomID, sid, core.ReasonLeaving)
		} else {
			e.Conn.Close(core.ReasonLeaving)
		}
		return nil
	}

	prepared, perr := s.prepare(msg)
	if perr != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindInvalidShape, perr.Error())
		return nil
	}
	if e.Sess.RoomID == "" {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindRoomNotFound, "not in a room")
		return nil
	}
	if !s.rooms.Route(e.Sess.RoomID, sid, prepared) {
		s.sendError(e, protocol.ErrKindRoomNotFound, "room is gone")
	}
	return nil
}

// rejectFrame sorts a decode failure into ignore, error frame or
// disconnect.
func (s *Service) rejectFrame(e *sessionEntry, err error) error {
	switch {
	case errors.Is(err, protocol.ErrShape):
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindInvalidShape, err.Error())
		return nil
	case errors.Is(err, protocol.ErrUnknownKind):
		// Unknown kinds are ignored so old servers tolerate new clients.
		s.met.ProtocolWarning()
		s.log.Warn().Err(err).Msg("ignoring unknown frame kind")
		return nil
	default:
		s.met.MalformedFrame()
		return ErrBadFrame
	}
}

func (s *Service) handleJoin(sid domain.SessionID, e *sessionEntry, t protocol.JoinRoom) {
	if e.Sess.RoomID != "" {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindAlreadyJoined, "session already joined")
		return
	}
	name, err := domain.CleanDisplayName(t.Name)
	if err != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindInvalidShape, err.Error())
		return
	}
	role, err := domain.NormalizeRole(t.Role)
	if err != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindInvalidShape, err.Error())
		return
	}

	roomID := domain.RoomID(t.RoomID)
	if t.RoomID == "" {
		roomID = domain.NewRoomID()
	} else if err := domain.ValidateRoomID(t.RoomID); err != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindInvalidShape, err.Error())
		return
	}

	// A rejected token answers exactly like a missing room, so tokens
	// cannot be used to probe which rooms exist.
	if err := s.gate.Authorize(roomID, t.Token); err != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindRoomNotFound, "room unavailable")
		return
	}

	if err := s.reg.SetRoom(sid, roomID); err != nil {
		s.met.ValidationFailure()
		s.sendError(e, protocol.ErrKindAlreadyJoined, "session already joined")
		return
	}
	s.reg.SetProfile(sid, name, role)

	if err := s.rooms.Join(roomID, core.MemberSeed{ID: sid, Name: name, Role: role}, e.Conn); err != nil {
		s.reg.ClearRoom(sid)
		switch {
		case errors.Is(err, core.ErrRoomFull):
			s.met.ValidationFailure()
			s.sendError(e, protocol.ErrKindRoomFull, "room is at capacity")
		case errors.Is(err, core.ErrAlreadyMember):
			s.sendError(e, protocol.ErrKindAlreadyJoined, "session already joined")
		default:
			s.sendError(e, protocol.ErrKindRoomNotFound, "room unavailable")
		}
		return
	}
	s.log.Info().Str("sid", string(sid)).Str("room", string(roomID)).Str("name", name).Msg("joined room")
}

// prepare sanitizes user text before it reaches a room. Structural and
// authorization rules stay with the room.
func (s *Service) prepare(msg protocol.Inbound) (protocol.Inbound, error) {
	switch t := msg.(type) {
	case protocol.SendMessage:
		text, err := domain.CleanText(t.Text, domain.MaxChatChars)
		if err != nil {
			return nil, err
		}
		t.Text = text
		return t, nil
	case protocol.CreatePoll:
		q, err := domain.CleanText(t.Poll.Question, domain.MaxPollQuestionChars)
		if err != nil {
			return nil, err
		}
		t.Poll.Question = q
		if t.Poll.Kind == domain.PollMultipleChoice {
			cleaned := make([]string, len(t.Poll.Options))
			for i, opt := range t.Poll.Options {
				c, err := domain.CleanText(opt, domain.MaxPollOptionChars)
				if err != nil {
					return nil, err
				}
				cleaned[i] = c
			}
			t.Poll.Options = cleaned
		} else {
			t.Poll.Options = nil
		}
		return t, nil
	case protocol.SubmitQuestion:
		q, err := domain.CleanText(t.Q, domain.MaxQuestionChars)
		if err != nil {
			return nil, err
		}
		t.Q = q
		return t, nil
	case protocol.AnswerQuestion:
		a, err := domain.CleanText(t.Answer, domain.MaxAnswerChars)
		if err != nil {
			return nil, err
		}
		t.Answer = a
		return t, nil
	case protocol.SendReaction:
		if !domain.ValidEmoji(t.Emoji) {
			return nil, domain.ErrEmoji
		}
		return t, nil
	}
	return msg, nil
}

func (s *Service) sendError(e *sessionEntry, kind, detail string) {
	if e.Conn.TrySend(protocol.NewErrorFrame(kind, detail)) == nil {
		s.met.MsgOut(protocol.KindError)
	}
}

func (s *Service) sendFrame(e *sessionEntry, v any, kind string) {
	b, err := protocol.Encode(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encode frame")
		return
	}
	if e.Conn.TrySend(b) == nil {
		s.met.MsgOut(kind)
	}
}

func signalLen(msg protocol.Inbound) int {
	switch t := msg.(type) {
	case protocol.SendingSignal:
		return len(t.Signal)
	case protocol.ReturningSignal:
		return len(t.Signal)
	}
	return 0
}

// drainPoll is how often Shutdown rechecks the egress queues.
const drainPoll = 10 * time.Millisecond

// Shutdown notifies every session, waits for egress queues to flush up
// to the drain deadline, then stops all rooms and drops the remaining
// connections.
func (s *Service) Shutdown() {
	if frame, err := protocol.Encode(protocol.ServerShutdown{Type: protocol.KindServerShutdown}); err == nil {
		s.reg.ForEachConn(func(c core.SignalConnection) { _ = c.TrySend(frame) })
	}
	s.awaitDrain()
	s.rooms.StopAll(core.ReasonShutdown)
	s.reg.ForEachConn(func(c core.SignalConnection) { c.Close(core.ReasonShutdown) })
	s.log.Info().Msg("service stopped")
}

// awaitDrain returns once every egress queue is empty, or at the drain
// deadline if some writer never catches up.
func (s *Service) awaitDrain() {
	deadline := time.Now().Add(s.drain)
	for time.Now().Before(deadline) {
		if s.egressDrained() {
			return
		}
		time.Sleep(drainPoll)
	}
}

func (s *Service) egressDrained() bool {
	drained := true
	s.reg.ForEachConn(func(c core.SignalConnection) {
		if c.Buffered() > 0 {
			drained = false
		}
	})
	return drained
}

// CanAccept reports whether a new connection currently fits.
func (s *Service) CanAccept() bool { return s.reg.CanAccept() }

func (s *Service) Rooms() []core.RoomInfo { return s.rooms.List() }

func (s *Service) InspectRoom(id domain.RoomID) (core.RoomSnapshot, bool) {
	return s.rooms.Inspect(id)
}

func (s *Service) EvictRoom(id domain.RoomID) bool { return s.rooms.Evict(id) }

func (s *Service) Stats() metrics.Snapshot { return s.met.Snapshot() }
