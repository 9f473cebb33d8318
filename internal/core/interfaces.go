package core

import (
	"context"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// Frame is a raw outbound payload (a JSON-encoded signal event).
type Frame []byte

// SessionID identifies one live transport connection.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// InboundTrack is a narrow view of a remote media track: enough for a
// recording sink to drain it without binding to the transport type.
type InboundTrack interface {
	Kind() string // "audio" or "video"
	ReadRTP() (*rtp.Packet, error)
}

// MediaConnection is a server-side peer endpoint used purely to
// receive media for recording. It never sends tracks.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// ApplyOfferAndCreateAnswer applies the remote offer and returns a
	// local answer with candidates already gathered.
	ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track InboundTrack))
	// OnClosed sets a callback for when the peer connection fails or closes.
	OnClosed(func())
}

// EventDirectory resolves event ownership and display names. It is the
// external event-store collaborator consumed by the chat coordinator.
type EventDirectory interface {
	// Authorize reports the chat role uid holds on the event, or
	// ErrUnauthorized when uid is neither the tutor nor the tutee.
	Authorize(eventID domain.EventID, uid domain.UserID) (domain.ChatRole, error)
	ResolveName(uid domain.UserID) string
}
