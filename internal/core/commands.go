package core

import (
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// roomCmd is the sealed set of messages a room task processes.
type roomCmd interface{ isRoomCmd() }

type joinCmd struct {
	seed  MemberSeed
	conn  SignalConnection
	reply chan error
}

type frameCmd struct {
	sender domain.SessionID
	msg    protocol.Inbound
}

type leaveCmd struct {
	sid    domain.SessionID
	reason string
}

type snapshotCmd struct {
	reply chan RoomSnapshot
}

type stopCmd struct {
	reason string
}

func (*joinCmd) isRoomCmd()     {}
func (*frameCmd) isRoomCmd()    {}
func (*leaveCmd) isRoomCmd()    {}
func (*snapshotCmd) isRoomCmd() {}
func (*stopCmd) isRoomCmd()     {}
