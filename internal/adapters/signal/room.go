package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/app/orch"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Eid  string `json:"eid"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Eid == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	id := domain.MeetingID(p.Eid)

	count, prev, err := ctl.Orch.Join(sid, id)
	if prev != nil {
		// The implicit leave happened regardless of how the new join
		// went; the previous room's remaining member gets told first.
		ctl.broadcastRoomLeft(*prev, sid)
	}
	if err != nil {
		if errors.Is(err, core.ErrRoomFull) {
			ctl.sendError(conn, "Room is full")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join")
		ctl.sendError(conn, "join failed")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Eid).Int("members", count).Msg("join")

	ctl.sendJSON(conn, struct {
		Type        string `json:"type"`
		Room        string `json:"room"`
		MemberCount int    `json:"member_count"`
	}{
		Type:        "joined",
		Room:        p.Eid,
		MemberCount: count,
	})

	ctl.broadcastRoom(id, sid, struct {
		Type        string `json:"type"`
		MemberCount int    `json:"member_count"`
	}{
		Type:        "user-joined",
		MemberCount: count,
	})

	// Both peers present: signaling may start, and so may capture.
	if count == core.MeetingCapacity {
		ctl.broadcastRoom(id, "", struct {
			Type string `json:"type"`
		}{Type: "peer-ready"})
		ctl.broadcastRoom(id, "", struct {
			Type string `json:"type"`
		}{Type: "start-recording"})
		log.Info().Str("module", "signal").Str("room", p.Eid).Msg("two peers in room, signaling peer-ready")
	}
}

// handleDisconnect runs when the transport drops. It tears down room,
// chat and recording state and notifies whoever remains.
func (ctl *SignalWSController) handleDisconnect(sid core.SessionID) {
	res := ctl.Orch.Disconnect(sid)

	if res.Room != nil {
		ctl.broadcastRoomLeft(*res.Room, sid)
	}

	if res.Chat != nil && res.Chat.Count > 0 {
		ctl.broadcastChatLeft(*res.Chat)
	}
}

// broadcastRoomLeft tells a room's remaining member that someone left,
// and that capture ended when the room dropped from two to one.
func (ctl *SignalWSController) broadcastRoomLeft(res orch.LeaveResult, left core.SessionID) {
	if res.Remaining == 0 {
		return
	}
	ctl.broadcastRoom(res.Meeting, left, struct {
		Type        string `json:"type"`
		MemberCount int    `json:"member_count"`
	}{
		Type:        "user-left",
		MemberCount: res.Remaining,
	})
	if res.RecordingStopped {
		ctl.broadcastRoom(res.Meeting, "", struct {
			Type string `json:"type"`
		}{Type: "stop-recording"})
	}
}
