package orch

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// HandleRecorderOffer creates (or reuses) the caller's recording
// session and negotiates it. The pion work runs on the bridge worker
// so all recorder state lives on one execution context; the caller
// blocks with the bridge's bounded timeout.
func (o *Orchestrator) HandleRecorderOffer(sid core.SessionID, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	meeting, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, core.ErrNotInRoom
	}

	var answer *webrtc.SessionDescription
	err := o.Bridge.Run(func() error {
		sess, err := o.Recordings.GetOrCreate(meeting, string(sid))
		if err != nil {
			return err
		}
		a, err := sess.HandleOffer(offer)
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// HandleRecorderCandidate forwards an ICE candidate to the caller's
// recording session. Best-effort: a missing session is only logged.
func (o *Orchestrator) HandleRecorderCandidate(sid core.SessionID, cand webrtc.ICECandidateInit) {
	meeting, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("recorder candidate from connection without room, dropped")
		return
	}
	sess, ok := o.Recordings.Get(meeting, string(sid))
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("meeting", string(meeting)).Msg("recorder candidate without session, dropped")
		return
	}
	sess.AddICECandidate(cand)
}

// StopRecordings ends every capture session of a meeting. Runs on the
// bridge so stops serialize with in-flight negotiation; a bridge
// timeout is logged and the stop finishes on the worker regardless.
func (o *Orchestrator) StopRecordings(id domain.MeetingID) {
	err := o.Bridge.Run(func() error {
		o.Recordings.StopAll(id)
		return nil
	})
	if err != nil {
		log.Error().Str("module", "orch").Str("meeting", string(id)).Err(err).Msg("stop recordings")
	}
}
