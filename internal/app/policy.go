package app

import "github.com/kylechi05/swan-hacks-2025/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what to do with a member whose signal connection
// cannot keep up with outbound events.
type Policy interface {
	OnBackPressure(sid core.SessionID) BackpressureAction
}

// SimplePolicy drops the slow member. A one-on-one meeting is useless
// with a peer that misses signaling events.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SessionID) BackpressureAction {
	return KickMember
}
