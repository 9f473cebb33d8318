package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
)

const pliInterval = 3 * time.Second

// RecorderConnection is a receive-only pion peer connection used by
// recording sessions. It never sends media; its single job is to
// accept the participant's tracks and surface them as InboundTracks.
type RecorderConnection struct {
	pc     *webrtc.PeerConnection
	tag    string
	cancel context.CancelFunc

	onTrack  func(ctx context.Context, track core.InboundTrack)
	onClosed func()

	closeOnce sync.Once
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// NewRecorderConnection builds the peer connection with recvonly
// audio and video transceivers already declared, so the answer always
// advertises both directions as receive-only.
func NewRecorderConnection(cfg webrtc.Configuration, tag string) (*RecorderConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}
	return &RecorderConnection{pc: pc, tag: tag}, nil
}

func (c *RecorderConnection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "webrtc").Str("tag", c.tag).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateDisconnected ||
			s == webrtc.ICEConnectionStateFailed ||
			s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "webrtc").Str("tag", c.tag).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			if c.onClosed != nil {
				c.onClosed()
			}
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "webrtc").
			Str("tag", c.tag).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go c.keyframeLoop(ctx, uint32(track.SSRC()))
		}
		if c.onTrack != nil {
			c.onTrack(ctx, remoteTrack{t: track})
		}
	})

	return nil
}

// keyframeLoop nags the sender with PLI so the recorded video stream
// keeps getting decodable keyframes.
func (c *RecorderConnection) keyframeLoop(ctx context.Context, ssrc uint32) {
	ticker := time.NewTicker(pliInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: ssrc}})
			if err != nil {
				log.Debug().Err(err).Str("module", "webrtc").Str("tag", c.tag).Msg("PLI write failed, stopping keyframe loop")
				return
			}
		}
	}
}

func (c *RecorderConnection) ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

func (c *RecorderConnection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *RecorderConnection) Close() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "webrtc").Str("tag", c.tag).Msg("close error")
		} else {
			log.Info().Str("module", "webrtc").Str("tag", c.tag).Msg("closed")
		}
	})
}

// OnTrack sets application-level callback for remote tracks.
func (c *RecorderConnection) OnTrack(fn func(ctx context.Context, track core.InboundTrack)) {
	c.onTrack = fn
}

// OnClosed sets application-level callback for connection teardown.
func (c *RecorderConnection) OnClosed(fn func()) { c.onClosed = fn }

// remoteTrack adapts *webrtc.TrackRemote to core.InboundTrack.
type remoteTrack struct {
	t *webrtc.TrackRemote
}

func (r remoteTrack) Kind() string { return r.t.Kind().String() }

func (r remoteTrack) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := r.t.ReadRTP()
	return pkt, err
}
