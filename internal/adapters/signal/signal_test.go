package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/app/orch"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
	"github.com/kylechi05/swan-hacks-2025/internal/eventstore"
	"github.com/kylechi05/swan-hacks-2025/internal/recording"
)

type stubMedia struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubMedia) Start(context.Context) error { return nil }
func (c *stubMedia) Close() { c.mu.Lock(); c.closed = true; c.mu.Unlock() }
func (c *stubMedia) AddICECandidate(webrtc.ICECandidateInit) error { return nil }
func (c *stubMedia) ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}
func (c *stubMedia) OnTrack(func(context.Context, core.InboundTrack)) {}
func (c *stubMedia) OnClosed(func()) {}

type wsHarness struct {
	srv *httptest.Server
	url string
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := eventstore.NewMemory()
	events.PutEvent(domain.Event{ID: 42, TutorID: 7, TuteeID: 9, Title: "Calculus"})
	events.PutUser(domain.User{ID: 7, Name: "Ada"})
	events.PutUser(domain.User{ID: 9, Name: "Ben"})

	bridge := app.NewBridge(time.Second)
	t.Cleanup(bridge.Close)

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    core.NewMeetingRooms(),
		Chats:    core.NewChatRooms(),
		Events:   events,
		Recordings: recording.NewManager(recording.Config{
			Dir: t.TempDir(),
			NewConn: func(domain.MeetingID, string) (core.MediaConnection, error) {
				return &stubMedia{}, nil
			},
		}),
		Bridge: bridge,
	}
	ctl := NewSignalWSController(o)

	r := gin.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &wsHarness{
		srv: srv,
		url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (h *wsHarness) dial(t *testing.T) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(v any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

// recv reads the next event and fails the test on a timeout.
func (c *wsClient) recv() map[string]any {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var ev map[string]any
	require.NoError(c.t, json.Unmarshal(data, &ev))
	return ev
}

func (c *wsClient) recvType(want string) map[string]any {
	c.t.Helper()
	ev := c.recv()
	require.Equal(c.t, want, ev["type"], "unexpected event %v", ev)
	return ev
}

func TestSignalPing(t *testing.T) {
	h := newWSHarness(t)
	c := h.dial(t)

	c.send(map[string]any{"type": "ping"})
	c.recvType("pong")
}

func TestSignalJoinFlow(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	ev := a.recvType("joined")
	assert.Equal(t, "m1", ev["room"])
	assert.EqualValues(t, 1, ev["member_count"])

	b.send(map[string]any{"type": "join", "eid": "m1"})
	ev = b.recvType("joined")
	assert.EqualValues(t, 2, ev["member_count"])

	ev = a.recvType("user-joined")
	assert.EqualValues(t, 2, ev["member_count"])

	a.recvType("peer-ready")
	a.recvType("start-recording")
	b.recvType("peer-ready")
	b.recvType("start-recording")
}

func TestSignalRoomFull(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)
	c := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	a.recvType("joined")
	b.send(map[string]any{"type": "join", "eid": "m1"})
	b.recvType("joined")

	c.send(map[string]any{"type": "join", "eid": "m1"})
	ev := c.recvType("error")
	assert.Equal(t, "Room is full", ev["message"])
}

func TestSignalRelay(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	a.recvType("joined")
	b.send(map[string]any{"type": "join", "eid": "m1"})
	b.recvType("joined")
	a.recvType("user-joined")
	a.recvType("peer-ready")
	a.recvType("start-recording")
	b.recvType("peer-ready")
	b.recvType("start-recording")

	a.send(map[string]any{"type": "offer", "sdp": "v=0 fake", "kind": "video"})
	ev := b.recvType("offer")
	// Relay is verbatim: unknown fields survive untouched.
	assert.Equal(t, "v=0 fake", ev["sdp"])
	assert.Equal(t, "video", ev["kind"])

	b.send(map[string]any{"type": "ice-candidate", "candidate": "candidate:1"})
	ev = a.recvType("ice-candidate")
	assert.Equal(t, "candidate:1", ev["candidate"])
}

func TestSignalRecorderOffer(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	a.recvType("joined")

	a.send(map[string]any{"type": "recorder-offer", "sdp": "v=0 offer"})
	ev := a.recvType("recorder-answer")
	assert.Equal(t, "v=0 answer", ev["sdp"])
}

func TestSignalChatFlow(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)

	a.send(map[string]any{"type": "join-chat", "eventid": 42, "userid": 7})
	ev := a.recvType("chat-joined")
	assert.EqualValues(t, 42, ev["eventid"])
	assert.Equal(t, "tutor", ev["role"])
	assert.EqualValues(t, 1, ev["member_count"])

	b.send(map[string]any{"type": "join-chat", "eventid": 42, "userid": 9})
	ev = b.recvType("chat-joined")
	assert.Equal(t, "tutee", ev["role"])
	assert.EqualValues(t, 2, ev["member_count"])

	ev = a.recvType("user-joined-chat")
	assert.EqualValues(t, 9, ev["userid"])
	assert.Equal(t, "tutee", ev["role"])

	a.send(map[string]any{"type": "send-message", "eventid": 42, "message": "hi"})
	for _, c := range []*wsClient{a, b} {
		ev = c.recvType("receive-message")
		assert.Equal(t, "hi", ev["message"])
		assert.Equal(t, "Ada", ev["sender_name"])
		assert.Equal(t, "tutor", ev["role"])
		assert.EqualValues(t, 7, ev["userid"])
		assert.NotEmpty(t, ev["timestamp"])
	}

	a.send(map[string]any{"type": "typing", "is_typing": true})
	ev = b.recvType("user-typing")
	assert.Equal(t, true, ev["is_typing"])
	assert.EqualValues(t, 7, ev["userid"])

	b.send(map[string]any{"type": "leave-chat", "eventid": 42})
	ev = b.recvType("chat-left")
	assert.EqualValues(t, 42, ev["eventid"])
	ev = a.recvType("user-left-chat")
	assert.EqualValues(t, 9, ev["userid"])
	assert.EqualValues(t, 1, ev["member_count"])
}

func TestSignalChatUnauthorized(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)

	a.send(map[string]any{"type": "join-chat", "eventid": 42, "userid": 8})
	ev := a.recvType("chat-error")
	assert.Equal(t, "You are not a participant of this event", ev["message"])

	a.send(map[string]any{"type": "send-message", "eventid": 42, "message": "hi"})
	ev = a.recvType("chat-error")
	assert.Equal(t, "You are not in this chat", ev["message"])
}

func TestSignalDisconnectBroadcast(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	a.recvType("joined")
	b.send(map[string]any{"type": "join", "eid": "m1"})
	b.recvType("joined")
	a.recvType("user-joined")
	a.recvType("peer-ready")
	a.recvType("start-recording")
	b.recvType("peer-ready")
	b.recvType("start-recording")

	require.NoError(t, a.conn.Close())

	ev := b.recvType("user-left")
	assert.EqualValues(t, 1, ev["member_count"])
	b.recvType("stop-recording")
}

func TestSignalRoomSwitchBroadcast(t *testing.T) {
	h := newWSHarness(t)
	a := h.dial(t)
	b := h.dial(t)

	a.send(map[string]any{"type": "join", "eid": "m1"})
	a.recvType("joined")
	b.send(map[string]any{"type": "join", "eid": "m1"})
	b.recvType("joined")
	a.recvType("user-joined")
	a.recvType("peer-ready")
	a.recvType("start-recording")
	b.recvType("peer-ready")
	b.recvType("start-recording")

	// Joining another room leaves the first one implicitly.
	b.send(map[string]any{"type": "join", "eid": "m2"})
	ev := b.recvType("joined")
	assert.Equal(t, "m2", ev["room"])
	assert.EqualValues(t, 1, ev["member_count"])

	ev = a.recvType("user-left")
	assert.EqualValues(t, 1, ev["member_count"])
	a.recvType("stop-recording")
}

func TestChatRateLimiter(t *testing.T) {
	rl := NewChatRateLimiter(3, time.Minute)
	for range 3 {
		assert.True(t, rl.Allow(7))
	}
	assert.False(t, rl.Allow(7))
	// Other users have their own window.
	assert.True(t, rl.Allow(9))
}
