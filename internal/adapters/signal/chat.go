package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/app/orch"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

func (ctl *SignalWSController) handleJoinChat(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type joinChatPayload struct {
		Type    string `json:"type"`
		EventID int64  `json:"eventid"`
		UserID  int64  `json:"userid"`
		Role    string `json:"role"`
	}
	var p joinChatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.EventID == 0 {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-chat payload")
		ctl.sendChatError(conn, "bad_payload")
		return
	}

	res, err := ctl.Orch.JoinChat(sid, domain.EventID(p.EventID), domain.UserID(p.UserID))
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			ctl.sendChatError(conn, "You are not a participant of this event")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join-chat")
		ctl.sendChatError(conn, "chat join failed")
		return
	}

	if res.PrevLeave != nil && res.PrevLeave.Count > 0 {
		ctl.broadcastChatLeft(*res.PrevLeave)
	}

	ctl.sendJSON(conn, struct {
		Type        string          `json:"type"`
		EventID     domain.EventID  `json:"eventid"`
		Role        domain.ChatRole `json:"role"`
		MemberCount int             `json:"member_count"`
	}{
		Type:        "chat-joined",
		EventID:     res.Event,
		Role:        res.Role,
		MemberCount: res.Count,
	})

	members := ctl.Orch.Chats.Members(res.Event)
	sids := make([]core.SessionID, 0, len(members))
	for _, m := range members {
		sids = append(sids, m.SID)
	}
	ctl.broadcastSIDs(sids, sid, struct {
		Type        string          `json:"type"`
		UserID      domain.UserID   `json:"userid"`
		Role        domain.ChatRole `json:"role"`
		MemberCount int             `json:"member_count"`
	}{
		Type:        "user-joined-chat",
		UserID:      res.User.ID,
		Role:        res.Role,
		MemberCount: res.Count,
	})
}

func (ctl *SignalWSController) handleSendMessage(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type messagePayload struct {
		Type    string `json:"type"`
		EventID int64  `json:"eventid"`
		Message string `json:"message"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Message == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-message payload")
		ctl.sendChatError(conn, "bad_payload")
		return
	}

	if b, ok := ctl.Orch.Registry.ChatOf(sid); ok && ctl.Limiter != nil && !ctl.Limiter.Allow(b.User.ID) {
		ctl.sendChatError(conn, "Too many messages, slow down")
		return
	}

	msg, recipients, err := ctl.Orch.SendMessage(sid, domain.EventID(p.EventID), p.Message)
	if err != nil {
		if errors.Is(err, core.ErrNotInRoom) {
			ctl.sendChatError(conn, "You are not in this chat")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("send-message")
		ctl.sendChatError(conn, "message failed")
		return
	}

	// Sender included: the broadcast doubles as the delivery ack.
	ctl.broadcastSIDs(recipients, "", struct {
		Type string `json:"type"`
		domain.ChatMessage
	}{
		Type:        "receive-message",
		ChatMessage: msg,
	})
}

func (ctl *SignalWSController) handleLeaveChat(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type leaveChatPayload struct {
		Type    string `json:"type"`
		EventID int64  `json:"eventid"`
	}
	var p leaveChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave-chat payload")
		ctl.sendChatError(conn, "bad_payload")
		return
	}

	res, ok := ctl.Orch.LeaveChat(sid, domain.EventID(p.EventID))
	if !ok {
		return
	}

	ctl.sendJSON(conn, struct {
		Type    string         `json:"type"`
		EventID domain.EventID `json:"eventid"`
	}{
		Type:    "chat-left",
		EventID: res.Event,
	})

	if res.Count > 0 {
		ctl.broadcastChatLeft(res)
	}
}

func (ctl *SignalWSController) handleTyping(
	sid core.SessionID,
	_ *wsSignalConn,
	data []byte,
) {
	type typingPayload struct {
		Type     string `json:"type"`
		IsTyping bool   `json:"is_typing"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		return
	}

	res, recipients, ok := ctl.Orch.Typing(sid, p.IsTyping)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("typing from connection without chat, dropped")
		return
	}

	ctl.broadcastSIDs(recipients, "", struct {
		Type     string          `json:"type"`
		UserID   domain.UserID   `json:"userid"`
		Role     domain.ChatRole `json:"role"`
		IsTyping bool            `json:"is_typing"`
	}{
		Type:     "user-typing",
		UserID:   res.User.ID,
		Role:     res.Role,
		IsTyping: res.IsTyping,
	})
}

// broadcastChatLeft tells the remaining members someone left.
func (ctl *SignalWSController) broadcastChatLeft(res orch.ChatLeaveResult) {
	members := ctl.Orch.Chats.Members(res.Event)
	sids := make([]core.SessionID, 0, len(members))
	for _, m := range members {
		sids = append(sids, m.SID)
	}
	ctl.broadcastSIDs(sids, res.Member.SID, struct {
		Type        string          `json:"type"`
		UserID      domain.UserID   `json:"userid"`
		Role        domain.ChatRole `json:"role"`
		MemberCount int             `json:"member_count"`
	}{
		Type:        "user-left-chat",
		UserID:      res.Member.User.ID,
		Role:        res.Member.Role,
		MemberCount: res.Count,
	})
}
