package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// ChatJoinResult tells the adapter who joined where.
type ChatJoinResult struct {
	Event domain.EventID
	User  domain.User
	Role  domain.ChatRole
	Count int
	// PrevLeave is set when the connection was in another event's chat
	// and got moved; the old room needs a user-left-chat broadcast.
	PrevLeave *ChatLeaveResult
}

// JoinChat authorizes uid against the event's participants and claims
// the matching role slot. The directory is authoritative for the role;
// the role claimed by the client payload is ignored.
func (o *Orchestrator) JoinChat(sid core.SessionID, eventID domain.EventID, uid domain.UserID) (ChatJoinResult, error) {
	role, err := o.Events.Authorize(eventID, uid)
	if err != nil {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Int64("event", int64(eventID)).Int64("user", int64(uid)).Msg("chat join unauthorized")
		return ChatJoinResult{}, err
	}

	res := ChatJoinResult{Event: eventID, Role: role}
	if b, ok := o.Registry.ChatOf(sid); ok && b.Event != eventID {
		if left, didLeave := o.LeaveChat(sid, b.Event); didLeave {
			res.PrevLeave = &left
		}
	}

	user := domain.User{ID: uid, Name: o.Events.ResolveName(uid)}
	count, replaced, err := o.Chats.Join(eventID, sid, user, role)
	if err != nil {
		return ChatJoinResult{}, err
	}
	if replaced != "" {
		o.Registry.ClearChat(replaced)
	}
	o.Registry.BindChat(sid, app.ChatBinding{Event: eventID, User: user, Role: role})

	res.User = user
	res.Count = count
	return res, nil
}

// ChatLeaveResult tells the adapter what to broadcast after a member left.
type ChatLeaveResult struct {
	Event  domain.EventID
	Member core.ChatMember
	Count  int
}

func (o *Orchestrator) LeaveChat(sid core.SessionID, eventID domain.EventID) (ChatLeaveResult, bool) {
	member, count, ok := o.Chats.Leave(eventID, sid)
	if b, bound := o.Registry.ChatOf(sid); bound && b.Event == eventID {
		o.Registry.ClearChat(sid)
	}
	if !ok {
		return ChatLeaveResult{}, false
	}
	return ChatLeaveResult{Event: eventID, Member: member, Count: count}, true
}

// SendMessage builds the broadcast payload for a chat message. The
// sender must be a member of the event's chat; membership is the only
// check, authorization happened at join time.
func (o *Orchestrator) SendMessage(sid core.SessionID, eventID domain.EventID, text string) (domain.ChatMessage, []core.SessionID, error) {
	member, ok := o.Chats.Member(eventID, sid)
	if !ok {
		return domain.ChatMessage{}, nil, core.ErrNotInRoom
	}
	msg := domain.NewChatMessage(eventID, member.User, member.Role, text)
	members := o.Chats.Members(eventID)
	recipients := make([]core.SessionID, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.SID)
	}
	return msg, recipients, nil
}

// TypingResult carries a typing indicator to everyone but the typist.
type TypingResult struct {
	Event    domain.EventID
	User     domain.User
	Role     domain.ChatRole
	IsTyping bool
}

func (o *Orchestrator) Typing(sid core.SessionID, isTyping bool) (TypingResult, []core.SessionID, bool) {
	b, ok := o.Registry.ChatOf(sid)
	if !ok {
		return TypingResult{}, nil, false
	}
	var recipients []core.SessionID
	for _, m := range o.Chats.Members(b.Event) {
		if m.SID == sid {
			continue
		}
		recipients = append(recipients, m.SID)
	}
	return TypingResult{Event: b.Event, User: b.User, Role: b.Role, IsTyping: isTyping}, recipients, true
}
