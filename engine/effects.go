package engine

import (
	"time"
)

// A pending notification. Target is a group or user identifier depending on
// which list the notice sits in.
type Notice struct {
	Target string
	Text   string
}

// Mutable container for all the possible side-effects from evaluating one
// content unit. Effects are collected during evaluation and applied in bulk
// at the end; the ledger write is the one side-effect that happens inline,
// since the same evaluation's counts must include it.
type Effects struct {
	// If true, the offending message should be recalled from the platform.
	Recall bool
	// If set, the sending user should be muted for this duration.
	Mute *time.Duration
	// If true, the sending user should be kicked; KickBlock additionally
	// blocks re-entry.
	Kick      bool
	KickBlock bool
	// If true, group-wide lockdown (mute-all) should be enabled.
	Lockdown bool
	// Notifications for the policy's notify-target group, in decision order.
	GroupNotices []Notice
	// Private notifications (admin/owner channel), in decision order.
	PrivateNotices []Notice
}

func (e *Effects) RecallMessage() {
	e.Recall = true
}

func (e *Effects) MuteFor(d time.Duration) {
	e.Mute = &d
}

func (e *Effects) KickUser(block bool) {
	e.Kick = true
	e.KickBlock = block
}

func (e *Effects) EnableLockdown() {
	e.Lockdown = true
}

func (e *Effects) NotifyGroup(target, text string) {
	e.GroupNotices = append(e.GroupNotices, Notice{Target: target, Text: text})
}

func (e *Effects) NotifyPrivate(target, text string) {
	e.PrivateNotices = append(e.PrivateNotices, Notice{Target: target, Text: text})
}
