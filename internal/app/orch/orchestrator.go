// Package orch coordinates registry, room, chat and recording state in
// response to connection events. Adapters parse and serialize; all
// state mutation funnels through here.
package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
	"github.com/kylechi05/swan-hacks-2025/internal/recording"
)

type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *core.MeetingRooms
	Chats      *core.ChatRooms
	Events     core.EventDirectory
	Recordings *recording.Manager
	Bridge     *app.Bridge
}

// Join puts sid into a meeting room, leaving any previous room first.
// Returns the member count after joining; ErrRoomFull rejects without
// mutating the target room. When the connection was in another room,
// the implicit leave's result is returned so the adapter can notify
// that room's remaining member; the leave stands even when the new
// join is rejected.
func (o *Orchestrator) Join(sid core.SessionID, id domain.MeetingID) (int, *LeaveResult, error) {
	var prev *LeaveResult
	if prevID, ok := o.Registry.RoomOf(sid); ok {
		left := o.leaveRoom(sid, prevID)
		prev = &left
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prevID)).Int("remaining", left.Remaining).Msg("left previous room on join")
	}
	count, err := o.Rooms.Join(id, sid)
	if err != nil {
		return count, prev, err
	}
	o.Registry.BindRoom(sid, id)
	return count, prev, nil
}

// LeaveResult tells the adapter what to broadcast after a member left.
type LeaveResult struct {
	Meeting   domain.MeetingID
	Remaining int
	// RecordingStopped is set when the room dropped from two members
	// to one; the remaining member should be told recording ended.
	RecordingStopped bool
}

// Leave removes sid from its current room, if any.
func (o *Orchestrator) Leave(sid core.SessionID) (LeaveResult, bool) {
	id, ok := o.Registry.RoomOf(sid)
	if !ok {
		return LeaveResult{}, false
	}
	return o.leaveRoom(sid, id), true
}

func (o *Orchestrator) leaveRoom(sid core.SessionID, id domain.MeetingID) LeaveResult {
	remaining, wasMember := o.Rooms.Leave(id, sid)
	o.Registry.ClearRoom(sid)
	res := LeaveResult{Meeting: id, Remaining: remaining}
	if !wasMember {
		return res
	}
	if remaining <= 1 {
		// The two-party session is gone; capture for this meeting ends
		// with it, including the leaver's own session.
		o.StopRecordings(id)
		res.RecordingStopped = remaining == 1
	}
	return res
}

// DisconnectResult aggregates the cleanup of a dropped connection.
type DisconnectResult struct {
	Room *LeaveResult
	Chat *ChatLeaveResult
}

// Disconnect tears down everything sid occupied and unbinds it.
func (o *Orchestrator) Disconnect(sid core.SessionID) DisconnectResult {
	var res DisconnectResult
	if id, ok := o.Registry.RoomOf(sid); ok {
		r := o.leaveRoom(sid, id)
		res.Room = &r
	}
	if b, ok := o.Registry.ChatOf(sid); ok {
		if c, left := o.LeaveChat(sid, b.Event); left {
			res.Chat = &c
		}
	}
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
	return res
}
