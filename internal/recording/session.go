// Package recording owns the per-participant server-side capture
// sessions for tutoring meetings. A session receives a participant's
// inbound tracks over a receive-only peer connection and persists them
// to disk; finished audio artifacts are handed to the transcription
// collaborator as background work.
package recording

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// State is the lifecycle of one capture session. Stopped is terminal
// and entered exactly once.
type State int32

const (
	StateInitialized State = iota
	StateAwaitingTracks
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateAwaitingTracks:
		return "awaiting_tracks"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

var (
	// ErrSessionStopped rejects signaling against a finished session.
	ErrSessionStopped = errors.New("recording session stopped")
)

// Scheduler queues fire-and-forget background work.
type Scheduler interface {
	Submit(name string, fn func(context.Context) error) bool
}

// Transcriber is the external speech-to-text collaborator. It consumes
// a finished audio artifact and produces a transcript file; the core
// never awaits its result.
type Transcriber interface {
	ProcessRecording(ctx context.Context, artifactPath string, meetingID domain.MeetingID, participantID string) (string, error)
}

// Session captures one participant's media for one meeting.
type Session struct {
	meetingID     domain.MeetingID
	participantID string

	mu    sync.Mutex
	state State
	conn  core.MediaConnection
	audio *trackSink
	video *trackSink
	grace *time.Timer

	gracePeriod time.Duration
	dir         string
	stamp       string
	newWriter   WriterFactory

	cancel     context.CancelFunc
	tasks      Scheduler
	transcribe Transcriber
	onStopped  func()

	logger zerolog.Logger
}

func newSession(cfg Config, meetingID domain.MeetingID, participantID string, onStopped func()) (*Session, error) {
	logger := log.With().
		Str("module", "recording").
		Str("meeting", string(meetingID)).
		Str("participant", participantID).
		Logger()

	conn, err := cfg.NewConn(meetingID, participantID)
	if err != nil {
		return nil, fmt.Errorf("recorder peer connection: %w", err)
	}

	s := &Session{
		meetingID:     meetingID,
		participantID: participantID,
		state:         StateInitialized,
		conn:          conn,
		gracePeriod:   cfg.GracePeriod,
		dir:           cfg.Dir,
		stamp:         time.Now().Format("20060102_150405"),
		newWriter:     cfg.NewWriter,
		tasks:         cfg.Tasks,
		transcribe:    cfg.Transcriber,
		onStopped:     onStopped,
		logger:        logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	conn.OnTrack(s.onTrack)
	conn.OnClosed(func() {
		s.logger.Info().Msg("recorder peer connection closed, stopping session")
		s.Stop()
	})
	if err := conn.Start(ctx); err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("recorder start: %w", err)
	}

	s.mu.Lock()
	s.state = StateAwaitingTracks
	s.mu.Unlock()
	logger.Info().Msg("recording session created")
	return s, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// artifactPath builds the deterministic per-session artifact name:
// {meeting}_{participant}_{timestamp}.{ext}. Repeated sessions of the
// same pair differ by timestamp.
func (s *Session) artifactPath(ext string) string {
	name := fmt.Sprintf("%s_%s_%s.%s", s.meetingID, s.participantID, s.stamp, ext)
	return filepath.Join(s.dir, name)
}

// HandleOffer applies the participant's offer and returns a fresh
// answer for the current negotiation round. Callable until the session
// stops; a concurrent Stop wins and later offers are rejected.
func (s *Session) HandleOffer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return nil, ErrSessionStopped
	}
	answer, err := s.conn.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		return nil, fmt.Errorf("apply recorder offer: %w", err)
	}
	return answer, nil
}

// AddICECandidate is best-effort: candidates legitimately arrive after
// the connection already succeeded or failed, so errors are only logged.
func (s *Session) AddICECandidate(cand webrtc.ICECandidateInit) {
	s.mu.Lock()
	stopped := s.state == StateStopped
	conn := s.conn
	s.mu.Unlock()
	if stopped {
		return
	}
	if err := conn.AddICECandidate(cand); err != nil {
		s.logger.Warn().Err(err).Msg("add recorder ICE candidate")
	}
}

func (s *Session) onTrack(ctx context.Context, track core.InboundTrack) {
	kind := track.Kind()

	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}

	sink, err := s.sinkFor(kind)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("kind", kind).Msg("recording start failure")
		return
	}
	if sink == nil {
		// Duplicate or unknown kind; drain nothing.
		s.mu.Unlock()
		s.logger.Warn().Str("kind", kind).Msg("ignoring unexpected track")
		return
	}

	if s.audio != nil && s.video != nil {
		s.beginRecordingLocked("both tracks arrived")
	} else if s.grace == nil {
		// One track may never show up; record what we have after the
		// grace period instead of hanging indefinitely.
		s.grace = time.AfterFunc(s.gracePeriod, s.graceElapsed)
	}
	s.mu.Unlock()

	s.logger.Info().Str("kind", kind).Msg("inbound track arrived")
	go s.pump(ctx, track, sink)
}

// sinkFor lazily opens the artifact sink for a track kind. Caller
// holds s.mu.
func (s *Session) sinkFor(kind string) (*trackSink, error) {
	switch kind {
	case "audio":
		if s.audio != nil {
			return nil, nil
		}
		sink, err := newTrackSink(s.newWriter, kind, s.artifactPath("ogg"))
		if err != nil {
			return nil, err
		}
		s.audio = sink
		return sink, nil
	case "video":
		if s.video != nil {
			return nil, nil
		}
		sink, err := newTrackSink(s.newWriter, kind, s.artifactPath("ivf"))
		if err != nil {
			return nil, err
		}
		s.video = sink
		return sink, nil
	}
	return nil, nil
}

func (s *Session) graceElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingTracks {
		return
	}
	if s.audio == nil && s.video == nil {
		return
	}
	s.beginRecordingLocked("grace period elapsed")
}

func (s *Session) beginRecordingLocked(reason string) {
	if s.state != StateAwaitingTracks {
		return
	}
	s.state = StateRecording
	s.logger.Info().Str("reason", reason).Msg("recording")
}

// pump drains one track into its sink until the track or the session ends.
func (s *Session) pump(ctx context.Context, track core.InboundTrack, sink *trackSink) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		pkt, err := track.ReadRTP()
		if err != nil {
			s.logger.Info().Err(err).Str("kind", track.Kind()).Msg("track drained")
			return
		}
		if err := sink.WriteRTP(pkt); err != nil {
			if !errors.Is(err, errSinkClosed) {
				s.logger.Error().Err(err).Str("kind", track.Kind()).Msg("write artifact")
			}
			return
		}
	}
}

// Stop finalizes the session from any state. Idempotent; safe to call
// concurrently with any other session method, and it wins: the final
// state is always Stopped. Empty artifacts are discarded; a non-empty
// audio artifact is handed to the transcriber fire-and-forget.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = StateStopped
	if s.grace != nil {
		s.grace.Stop()
	}
	audio, video := s.audio, s.video
	s.mu.Unlock()

	s.cancel()
	s.conn.Close()

	audioKept := finalizeSink(s.logger, audio)
	finalizeSink(s.logger, video)

	s.logger.Info().Str("from", prev.String()).Msg("recording session stopped")

	if audioKept {
		s.scheduleTranscription(audio.path)
	}

	if s.onStopped != nil {
		s.onStopped()
	}
}

// finalizeSink closes the sink and reports whether a non-empty
// artifact was kept on disk.
func finalizeSink(logger zerolog.Logger, sink *trackSink) bool {
	if sink == nil {
		return false
	}
	if err := sink.Close(); err != nil {
		logger.Error().Err(err).Str("artifact", sink.path).Msg("close artifact")
	}
	if sink.Discarded() {
		logger.Info().Str("artifact", sink.path).Msg("empty artifact discarded")
		return false
	}
	logger.Info().Str("artifact", sink.path).Int("packets", sink.Packets()).Msg("artifact finalized")
	return true
}

func (s *Session) scheduleTranscription(artifact string) {
	if s.transcribe == nil || s.tasks == nil {
		s.logger.Warn().Msg("no transcriber configured, skipping")
		return
	}
	name := fmt.Sprintf("transcribe %s", filepath.Base(artifact))
	s.tasks.Submit(name, func(ctx context.Context) error {
		path, err := s.transcribe.ProcessRecording(ctx, artifact, s.meetingID, s.participantID)
		if err != nil {
			return err
		}
		s.logger.Info().Str("transcript", path).Msg("transcription completed")
		return nil
	})
}
