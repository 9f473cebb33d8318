// Package transcribe bridges finished recordings to an external
// speech-to-text service. The conversion itself happens remotely; this
// client only ships the audio artifact out and stores the transcript
// JSON that comes back.
package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

type Client struct {
	url  string
	dir  string
	http *http.Client
}

// New builds a client posting artifacts to url and writing transcripts
// under dir.
func New(url, dir string) *Client {
	return &Client{
		url: url,
		dir: dir,
		http: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// ProcessRecording implements recording.Transcriber. It uploads the
// audio artifact and persists the service's transcript response as
// {meeting}_{participant}_transcript.json, returning the transcript path.
func (c *Client) ProcessRecording(ctx context.Context, artifactPath string, meetingID domain.MeetingID, participantID string) (string, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, f)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/ogg")
	req.Header.Set("X-Meeting-ID", string(meetingID))
	req.Header.Set("X-Participant-ID", participantID)

	log.Info().Str("module", "transcribe").Str("artifact", artifactPath).Msg("uploading artifact for transcription")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, body)
	}

	transcript, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("transcripts dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_transcript.json", meetingID, participantID)
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, transcript, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	log.Info().Str("module", "transcribe").Str("transcript", path).Msg("transcript saved")
	return path, nil
}
