// Per-group moderation policy resolution.
//
// A deployment configures one default policy plus an ordered list of
// per-group overrides. Resolve overlays the first matching override onto the
// default; the result is the effective policy for one decision and is never
// shared mutable state.
package policy

import (
	"log/slog"
	"time"

	"github.com/chatwarden/chatwarden/ledger"
)

// Policy is the fully-resolved configuration for one group. Durations are
// in seconds, matching the upstream config format.
type Policy struct {
	RuleID                       string `json:"rule_id"`
	NotifyGroupID                string `json:"notify_group_id"`
	BotOwnerID                   string `json:"bot_owner_id"`
	TimeWindow                   int    `json:"time_window"`
	SingleUserViolationThreshold int    `json:"single_user_violation_threshold"`
	MuteDuration                 int    `json:"mute_duration"`
	KickUserThreshold            int    `json:"kick_user_threshold"`
	KickUser                     bool   `json:"kick_user"`
	KickUserAndBlock             bool   `json:"is_kick_user_and_block"`
	GroupViolationThreshold      int    `json:"group_violation_threshold"`
}

// Override is one per-group policy entry. Nil fields inherit the default
// policy; the group identifier itself never overlays.
type Override struct {
	GroupID                      string  `json:"group_id"`
	RuleID                       *string `json:"rule_id,omitempty"`
	NotifyGroupID                *string `json:"notify_group_id,omitempty"`
	BotOwnerID                   *string `json:"bot_owner_id,omitempty"`
	TimeWindow                   *int    `json:"time_window,omitempty"`
	SingleUserViolationThreshold *int    `json:"single_user_violation_threshold,omitempty"`
	MuteDuration                 *int    `json:"mute_duration,omitempty"`
	KickUserThreshold            *int    `json:"kick_user_threshold,omitempty"`
	KickUser                     *bool   `json:"kick_user,omitempty"`
	KickUserAndBlock             *bool   `json:"is_kick_user_and_block,omitempty"`
	GroupViolationThreshold      *int    `json:"group_violation_threshold,omitempty"`
}

// Default returns the stock policy applied to groups with no override.
func Default() Policy {
	return Policy{
		RuleID:                       "default",
		TimeWindow:                   300,
		SingleUserViolationThreshold: 3,
		MuteDuration:                 86400,
		KickUserThreshold:            5,
		GroupViolationThreshold:      5,
	}
}

// Resolve produces the effective policy for a group. The first override
// whose GroupID matches wins; later duplicates are ignored. Identical
// inputs always yield identical output.
//
// A window wider than the ledger retention horizon would silently
// undercount old violations, so it is clamped here with a warning.
func Resolve(groupID string, def Policy, overrides []Override) Policy {
	out := def
	for _, ov := range overrides {
		if ov.GroupID != groupID {
			continue
		}
		if ov.RuleID != nil {
			out.RuleID = *ov.RuleID
		}
		if ov.NotifyGroupID != nil {
			out.NotifyGroupID = *ov.NotifyGroupID
		}
		if ov.BotOwnerID != nil {
			out.BotOwnerID = *ov.BotOwnerID
		}
		if ov.TimeWindow != nil {
			out.TimeWindow = *ov.TimeWindow
		}
		if ov.SingleUserViolationThreshold != nil {
			out.SingleUserViolationThreshold = *ov.SingleUserViolationThreshold
		}
		if ov.MuteDuration != nil {
			out.MuteDuration = *ov.MuteDuration
		}
		if ov.KickUserThreshold != nil {
			out.KickUserThreshold = *ov.KickUserThreshold
		}
		if ov.KickUser != nil {
			out.KickUser = *ov.KickUser
		}
		if ov.KickUserAndBlock != nil {
			out.KickUserAndBlock = *ov.KickUserAndBlock
		}
		if ov.GroupViolationThreshold != nil {
			out.GroupViolationThreshold = *ov.GroupViolationThreshold
		}
		break
	}
	maxWindow := int(ledger.RetentionPeriod / time.Second)
	if out.TimeWindow > maxWindow {
		slog.Warn("policy time window exceeds ledger retention, clamping", "group", groupID, "window", out.TimeWindow, "max", maxWindow)
		out.TimeWindow = maxWindow
	}
	return out
}

// Window returns the sliding window as a duration.
func (p Policy) Window() time.Duration {
	return time.Duration(p.TimeWindow) * time.Second
}

// MuteFor returns the mute duration as a duration.
func (p Policy) MuteFor() time.Duration {
	return time.Duration(p.MuteDuration) * time.Second
}

// Config is the materialized engine configuration handed in by the host.
// Loading and parsing it from disk is the host's business.
type Config struct {
	EnabledGroups     []string   `json:"enabled_groups"`
	EnableTextCensor  bool       `json:"enable_text_censor"`
	EnableImageCensor bool       `json:"enable_image_censor"`
	Default           Policy     `json:"default"`
	Overrides         []Override `json:"group_custom"`
}

// Enabled reports whether auditing runs for the given group at all. An
// empty enablement list disables auditing everywhere.
func (c *Config) Enabled(groupID string) bool {
	for _, g := range c.EnabledGroups {
		if g == groupID {
			return true
		}
	}
	return false
}
