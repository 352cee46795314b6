package core

import (
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// relaySignal forwards a WebRTC offer blob to the addressed peer. The
// payload is opaque: it is passed through byte for byte. Both the
// claimed caller and the target must be current members.
func (r *Room) relaySignal(sender *member, msg protocol.SendingSignal) {
	caller, callerOK := r.byID[msg.CallerID]
	target, targetOK := r.byID[msg.UserToSignal]
	if !callerOK || !targetOK {
		r.relayMiss(sender, msg.UserToSignal)
		return
	}
	frame := protocol.NewUserJoinedSignalFrame(msg.Signal, caller.id, caller.name, caller.role)
	r.sendTo(target, frame, protocol.KindUserJoined)
	r.opts.Metrics.RelayForwarded()
}

// relayReturn completes the handshake: the answer travels back to the
// peer that sent the offer.
func (r *Room) relayReturn(sender *member, msg protocol.ReturningSignal) {
	caller, ok := r.byID[msg.CallerID]
	if !ok {
		r.relayMiss(sender, msg.CallerID)
		return
	}
	frame := protocol.NewReceivingReturnedSignalFrame(sender.id, msg.Signal)
	r.sendTo(caller, frame, protocol.KindReceivingReturnedSignal)
	r.opts.Metrics.RelayForwarded()
}

func (r *Room) relayMiss(sender *member, peer domain.SessionID) {
	r.opts.Metrics.RelayUnknownPeer()
	r.log.Debug().Str("peer", string(peer)).Msg("relay to unknown peer")
	if r.opts.UnknownPeerError {
		r.sendTo(sender, protocol.NewErrorFrame(protocol.ErrKindUnknownPeer, "peer not in room"), protocol.KindError)
	}
}
