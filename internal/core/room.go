package core

import (
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/metrics"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

const inboxCapacity = 256

// RoomOptions wires a room to its collaborators.
type RoomOptions struct {
	Limits  Limits
	Clock   Clock
	Policy  Policy
	Metrics *metrics.Metrics

	// UnknownPeerError controls whether relays naming a peer outside the
	// room answer with an error frame or fail silently.
	UnknownPeerError bool

	// OnExit runs on the room goroutine right before it terminates.
	OnExit func(id domain.RoomID, r *Room)
}

type member struct {
	id       domain.SessionID
	name     string
	role     string
	joinedAt int64
	conn     SignalConnection
}

// Room serializes every mutation of one conference room onto a single
// goroutine. All fields below inbox are owned by that goroutine and
// must never be touched from outside Run.
type Room struct {
	ID domain.RoomID

	opts  RoomOptions
	log   zerolog.Logger
	inbox chan roomCmd
	done  chan struct{}

	members []*member
	byID    map[domain.SessionID]*member
	hostID  domain.SessionID

	chat      *ring[domain.ChatMessage]
	polls     *ring[*domain.Poll]
	questions *ring[*domain.Question]
	reactions *ring[domain.Reaction]
	hands     []domain.RaisedHand

	pendingKicks []domain.SessionID
	everJoined   bool
}

func NewRoom(id domain.RoomID, opts RoomOptions) *Room {
	return &Room{
		ID:        id,
		opts:      opts,
		log:       log.With().Str("module", "core.room").Str("room", string(id)).Logger(),
		inbox:     make(chan roomCmd, inboxCapacity),
		done:      make(chan struct{}),
		byID:      make(map[domain.SessionID]*member),
		chat:      newRing[domain.ChatMessage](opts.Limits.ChatHistory),
		polls:     newRing[*domain.Poll](opts.Limits.Polls),
		questions: newRing[*domain.Question](opts.Limits.Questions),
		reactions: newRing[domain.Reaction](opts.Limits.ReactionRing),
	}
}

// Run serves the room inbox until the roster empties or the room is
// stopped. Callers start it exactly once, on its own goroutine.
func (r *Room) Run() {
	r.opts.Metrics.RoomUp()
	defer func() {
		close(r.done)
		r.opts.Metrics.RoomDown()
		if r.opts.OnExit != nil {
			r.opts.OnExit(r.ID, r)
		}
		r.log.Info().Msg("room closed")
	}()
	for cmd := range r.inbox {
		if r.dispatch(cmd) {
			return
		}
	}
}

// dispatch runs one command and reports whether the room terminates.
// A panic in a handler poisons the room: every member is disconnected
// and the room goes away, instead of serving half-mutated state.
func (r *Room) dispatch(cmd roomCmd) (terminate bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("command panicked, poisoning room")
			r.opts.Metrics.RoomPoisoned()
			r.closeAll(ReasonInternalError)
			terminate = true
		}
	}()
	switch c := cmd.(type) {
	case *joinCmd:
		r.handleJoin(c)
	case *frameCmd:
		r.handleFrame(c.sender, c.msg)
	case *leaveCmd:
		r.removeMember(c.sid, c.reason)
	case *snapshotCmd:
		c.reply <- r.snapshot()
	case *stopCmd:
		r.closeAll(c.reason)
		return true
	}
	r.flushKicks()
	return r.everJoined && len(r.members) == 0
}

// submit enqueues a command, blocking while the inbox is full. The
// room goroutine never blocks itself, so the queue always drains.
func (r *Room) submit(cmd roomCmd) bool {
	select {
	case <-r.done:
		return false
	case r.inbox <- cmd:
		return true
	}
}

// Join admits the session and waits for the verdict.
func (r *Room) Join(seed MemberSeed, conn SignalConnection) error {
	reply := make(chan error, 1)
	if !r.submit(&joinCmd{seed: seed, conn: conn, reply: reply}) {
		return ErrRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Deliver hands a decoded frame to the room task.
func (r *Room) Deliver(sender domain.SessionID, msg protocol.Inbound) bool {
	return r.submit(&frameCmd{sender: sender, msg: msg})
}

// Leave schedules the member's departure.
func (r *Room) Leave(sid domain.SessionID, reason string) {
	r.submit(&leaveCmd{sid: sid, reason: reason})
}

// Snapshot reports the room state as seen between commands.
func (r *Room) Snapshot() (RoomSnapshot, bool) {
	reply := make(chan RoomSnapshot, 1)
	if !r.submit(&snapshotCmd{reply: reply}) {
		return RoomSnapshot{}, false
	}
	select {
	case snap := <-reply:
		return snap, true
	case <-r.done:
		return RoomSnapshot{}, false
	}
}

// Stop disconnects every member and waits for the room task to exit.
func (r *Room) Stop(reason string) {
	r.submit(&stopCmd{reason: reason})
	<-r.done
}

// Closed reports whether the room task has terminated.
func (r *Room) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Room) handleJoin(c *joinCmd) {
	if _, ok := r.byID[c.seed.ID]; ok {
		c.reply <- ErrAlreadyMember
		return
	}
	if len(r.members) >= r.opts.Limits.MaxMembers {
		c.reply <- ErrRoomFull
		return
	}

	roster := make([]protocol.RosterUser, 0, len(r.members))
	for _, x := range r.members {
		roster = append(roster, protocol.RosterUser{ID: x.id, Name: x.name, Role: x.role})
	}

	m := &member{
		id:       c.seed.ID,
		name:     c.seed.Name,
		role:     c.seed.Role,
		joinedAt: r.opts.Clock.NowMillis(),
		conn:     c.conn,
	}
	r.members = append(r.members, m)
	r.byID[m.id] = m
	r.everJoined = true
	if r.hostID == "" {
		r.hostID = m.id
	}

	r.sendTo(m, r.encode(protocol.AllUsers{Type: protocol.KindAllUsers, RoomID: r.ID, Users: roster}), protocol.KindAllUsers)
	r.replayHistories(m)
	r.broadcastExcept(m.id, r.encode(protocol.UserJoined{
		Type: protocol.KindUserJoined,
		ID:   m.id,
		Name: m.name,
		Role: m.role,
	}), protocol.KindUserJoined)
	r.log.Info().Str("sid", string(m.id)).Str("name", m.name).Int("members", len(r.members)).Msg("member joined")
	c.reply <- nil
}

// replayHistories brings a fresh member up to date. Reactions are
// deliberately absent: they are transient and never replayed.
func (r *Room) replayHistories(m *member) {
	r.sendTo(m, r.encode(protocol.ChatHistory{Type: protocol.KindChatHistory, Messages: r.chat.Items()}), protocol.KindChatHistory)

	polls := r.polls.Items()
	pollViews := make([]protocol.PollView, 0, len(polls))
	for _, p := range polls {
		pollViews = append(pollViews, protocol.PollViewOf(p))
	}
	r.sendTo(m, r.encode(protocol.PollsHistory{Type: protocol.KindPollsHistory, Polls: pollViews}), protocol.KindPollsHistory)

	questions := r.questions.Items()
	questionViews := make([]protocol.QuestionView, 0, len(questions))
	for _, q := range questions {
		questionViews = append(questionViews, protocol.QuestionViewOf(q))
	}
	r.sendTo(m, r.encode(protocol.QuestionsHistory{Type: protocol.KindQuestionsHistory, Questions: questionViews}), protocol.KindQuestionsHistory)

	hands := make([]domain.RaisedHand, len(r.hands))
	copy(hands, r.hands)
	r.sendTo(m, r.encode(protocol.RaisedHandsHistory{Type: protocol.KindRaisedHandsHistory, Hands: hands}), protocol.KindRaisedHandsHistory)
}

// removeMember drops the session from the roster, clears its side
// state, announces user-left and re-elects the host if needed.
func (r *Room) removeMember(sid domain.SessionID, reason string) {
	m, ok := r.byID[sid]
	if !ok {
		return
	}
	delete(r.byID, sid)
	r.members = slices.DeleteFunc(r.members, func(x *member) bool { return x.id == sid })
	r.dropHand(sid, false)
	for _, p := range r.polls.Items() {
		p.ClearVote(sid)
	}
	for _, q := range r.questions.Items() {
		q.ClearVote(sid)
	}
	m.conn.Close(reason)

	r.broadcast(r.encode(protocol.UserLeft{Type: protocol.KindUserLeft, ID: m.id, Name: m.name}), protocol.KindUserLeft)
	if sid == r.hostID {
		r.electHost()
	}
	r.log.Info().Str("sid", string(sid)).Str("reason", reason).Int("members", len(r.members)).Msg("member left")
}

// electHost promotes the longest-present member, oldest join time
// first, session id as the tie break.
func (r *Room) electHost() {
	if len(r.members) == 0 {
		r.hostID = ""
		return
	}
	best := r.members[0]
	for _, m := range r.members[1:] {
		if m.joinedAt < best.joinedAt || (m.joinedAt == best.joinedAt && m.id < best.id) {
			best = m
		}
	}
	r.hostID = best.id
	r.broadcast(r.encode(protocol.HostChanged{Type: protocol.KindHostChanged, NewHostID: best.id}), protocol.KindHostChanged)
	r.log.Info().Str("host", string(best.id)).Msg("host changed")
}

// sendTo delivers one frame to one member. On backpressure the policy
// decides between dropping the frame and scheduling a kick.
func (r *Room) sendTo(m *member, frame Frame, kind string) {
	if frame == nil {
		return
	}
	if err := m.conn.TrySend(frame); err != nil {
		if r.opts.Policy != nil && r.opts.Policy.OnBackpressure(kind) == DropFrame {
			r.opts.Metrics.Dropped(kind)
			return
		}
		r.opts.Metrics.SlowConsumer()
		r.pendingKicks = append(r.pendingKicks, m.id)
		return
	}
	r.opts.Metrics.MsgOut(kind)
}

func (r *Room) broadcast(frame Frame, kind string) {
	r.broadcastExcept("", frame, kind)
}

func (r *Room) broadcastExcept(except domain.SessionID, frame Frame, kind string) {
	for _, m := range r.members {
		if m.id == except {
			continue
		}
		r.sendTo(m, frame, kind)
	}
}

// flushKicks removes scheduled slow consumers. Each removal broadcasts
// user-left and possibly host-changed, which can surface further slow
// consumers, so this runs as a worklist instead of recursing.
func (r *Room) flushKicks() {
	for len(r.pendingKicks) > 0 {
		sid := r.pendingKicks[0]
		r.pendingKicks = r.pendingKicks[1:]
		r.removeMember(sid, ReasonSlowConsumer)
	}
}

func (r *Room) closeAll(reason string) {
	for _, m := range r.members {
		m.conn.Close(reason)
	}
	r.members = nil
	r.byID = map[domain.SessionID]*member{}
	r.hostID = ""
}

func (r *Room) sendError(m *member, kind, detail string) {
	r.opts.Metrics.ValidationFailure()
	r.sendTo(m, protocol.NewErrorFrame(kind, detail), protocol.KindError)
}

func (r *Room) encode(v any) Frame {
	b, err := protocol.Encode(v)
	if err != nil {
		r.log.Error().Err(err).Msg("encode frame")
		return nil
	}
	return b
}

func (r *Room) snapshot() RoomSnapshot {
	members := make([]MemberView, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, MemberView{
			ID:       m.id,
			Name:     m.name,
			Role:     m.role,
			Host:     m.id == r.hostID,
			JoinedAt: m.joinedAt,
		})
	}
	return RoomSnapshot{
		ID:          r.ID,
		HostID:      r.hostID,
		Members:     members,
		ChatLen:     r.chat.Len(),
		Polls:       r.polls.Len(),
		Questions:   r.questions.Len(),
		RaisedHands: len(r.hands),
		Reactions:   r.reactions.Len(),
	}
}
