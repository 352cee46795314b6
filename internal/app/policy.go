package app

import (
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// ClassPolicy drops transient kinds for a backpressured member and
// kicks for everything else. Losing a reaction is invisible; losing a
// roster or history frame desynchronizes the client for good.
type ClassPolicy struct {
	droppable map[string]bool
}

func NewClassPolicy() ClassPolicy {
	return ClassPolicy{droppable: map[string]bool{
		protocol.KindNewReaction: true,
	}}
}

func (p ClassPolicy) OnBackpressure(kind string) core.BackpressureAction {
	if p.droppable[kind] {
		return core.DropFrame
	}
	return core.KickMember
}
