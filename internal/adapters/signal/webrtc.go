package signal

import (
	"encoding/json"
	"errors"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
)

// relay forwards a negotiation frame verbatim to the other room
// members. The payload is never inspected: the WebRTC exchange stays
// opaque end to end. A sender without a room binding is dropped; that
// happens benignly during teardown races.
func (ctl *SignalWSController) relay(sid core.SessionID, event string, data []byte) {
	id, ok := ctl.Orch.Registry.RoomOf(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("event", event).Msg("relay from connection without room, dropped")
		return
	}
	for _, member := range ctl.Orch.Rooms.Members(id) {
		if member == sid {
			continue
		}
		conn, ok := ctl.Orch.Registry.Signal(member)
		if !ok {
			continue
		}
		if err := conn.TrySend(core.Frame(data)); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("dst", string(member)).Str("event", event).Msg("relay send failed")
		}
	}
}

func (ctl *SignalWSController) handleRecorderOffer(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type offerPayload struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	var p offerPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SDP == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad recorder offer payload")
		return
	}

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  p.SDP,
	}

	answer, err := ctl.Orch.HandleRecorderOffer(sid, offer)
	if err != nil {
		if errors.Is(err, core.ErrNotInRoom) {
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("recorder offer without room, dropped")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("recorder offer")
		if errors.Is(err, app.ErrOperationTimedOut) {
			ctl.sendError(conn, "recording negotiation timed out")
		} else {
			ctl.sendError(conn, "recording negotiation failed")
		}
		return
	}

	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}{
		Type: "recorder-answer",
		SDP:  answer.SDP,
	})
}

func (ctl *SignalWSController) handleRecorderCandidate(
	sid core.SessionID,
	_ *wsSignalConn,
	data []byte,
) {
	type candidatePayload struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad recorder candidate payload")
		return
	}

	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	ctl.Orch.HandleRecorderCandidate(sid, cand)
}
