package recording

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

// WriterFactory opens a media writer for one artifact file.
type WriterFactory func(kind, path string) (media.Writer, error)

// NewArtifactWriter is the production WriterFactory: Opus audio to OGG,
// VP8 video to IVF.
func NewArtifactWriter(kind, path string) (media.Writer, error) {
	switch kind {
	case "audio":
		return oggwriter.New(path, 48000, 2)
	case "video":
		return ivfwriter.New(path)
	}
	return nil, fmt.Errorf("no writer for track kind %q", kind)
}

var errSinkClosed = errors.New("sink closed")

// trackSink persists one media kind to one artifact file. Writes and
// Close are serialized by its own mutex, so the pump goroutine can
// race a Stop safely.
type trackSink struct {
	mu      sync.Mutex
	w       media.Writer
	path    string
	packets int
	closed  bool
}

func newTrackSink(factory WriterFactory, kind, path string) (*trackSink, error) {
	w, err := factory(kind, path)
	if err != nil {
		return nil, err
	}
	return &trackSink{w: w, path: path}, nil
}

func (s *trackSink) WriteRTP(pkt *rtp.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	if err := s.w.WriteRTP(pkt); err != nil {
		return err
	}
	s.packets++
	return nil
}

// Close finalizes the artifact. A sink that never saw a packet removes
// its file: header-only output is not a recording.
func (s *trackSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.w.Close()
	if s.packets == 0 {
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
	}
	return err
}

func (s *trackSink) Packets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packets
}

// Discarded reports whether Close dropped an empty artifact.
func (s *trackSink) Discarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed && s.packets == 0
}
