package engine

import (
	"context"
	"fmt"

	"github.com/chatwarden/chatwarden/flagstore"
	"github.com/chatwarden/chatwarden/policy"
)

// Flag marking a group whose lockdown has already been activated within the
// current window. Suppresses re-firing mute-all on every further violation.
const FlagLockdown = "lockdown"

func groupFlagKey(groupID string) string {
	return "group/" + groupID
}

// evaluateViolation runs the escalation ladders for one non-compliant
// content unit. The violation is recorded first so the counts checked below
// include it. The user ladder (mute, then kick) and the group ladder
// (lockdown) are independent; both are evaluated every time, and a single
// violation can trigger both. A threshold <= 0 disables that rung entirely.
func (eng *Engine) evaluateViolation(ctx context.Context, evt *MessageEvent, pol policy.Policy, kind, reason string, eff *Effects) error {
	if err := eng.Ledger.Record(ctx, evt.GroupID, evt.UserID, kind); err != nil {
		return fmt.Errorf("recording violation: %w", err)
	}

	eff.RecallMessage()
	if pol.NotifyGroupID != "" {
		eff.NotifyGroup(pol.NotifyGroupID, violationNotice(kind, evt.UserID, reason, pol.RuleID))
	}

	window := pol.Window()

	userCount, err := eng.Ledger.CountUser(ctx, evt.GroupID, evt.UserID, window)
	if err != nil {
		return fmt.Errorf("counting user violations: %w", err)
	}
	if pol.SingleUserViolationThreshold > 0 && userCount >= pol.SingleUserViolationThreshold {
		eff.MuteFor(pol.MuteFor())
		if pol.NotifyGroupID != "" {
			eff.NotifyGroup(pol.NotifyGroupID, muteNotice(evt.GroupID, evt.UserID, userCount, pol))
		}
		if pol.KickUserThreshold > 0 && userCount >= pol.KickUserThreshold && pol.KickUser {
			eff.KickUser(pol.KickUserAndBlock)
			if pol.NotifyGroupID != "" {
				eff.NotifyGroup(pol.NotifyGroupID, kickNotice(evt.GroupID, evt.UserID, pol.KickUserAndBlock, pol.RuleID))
			}
		}
	}

	groupCount, err := eng.Ledger.CountGroup(ctx, evt.GroupID, window)
	if err != nil {
		return fmt.Errorf("counting group violations: %w", err)
	}
	if pol.GroupViolationThreshold > 0 && groupCount >= pol.GroupViolationThreshold {
		active, err := flagstore.Has(ctx, eng.Flags, groupFlagKey(evt.GroupID), FlagLockdown)
		if err != nil {
			return fmt.Errorf("checking lockdown flag: %w", err)
		}
		if active {
			// already locked down; refresh the marker instead of re-firing
			// mute-all and spamming the notify-target
			if err := eng.Flags.Add(ctx, groupFlagKey(evt.GroupID), []string{FlagLockdown}, window); err != nil {
				return fmt.Errorf("refreshing lockdown flag: %w", err)
			}
		} else {
			eff.EnableLockdown()
			if pol.NotifyGroupID != "" {
				eff.NotifyGroup(pol.NotifyGroupID, lockdownNotice(evt.GroupID, groupCount, pol.RuleID))
			}
		}
	}

	return nil
}
