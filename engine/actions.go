package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatwarden/chatwarden/policy"
)

// Actuator executes enforcement decisions against the chat platform. Every
// call is fire-and-forget from the engine's perspective: failures are
// logged, never propagated.
type Actuator interface {
	RecallMessage(ctx context.Context, groupID, messageID string) error
	MuteUser(ctx context.Context, groupID, userID string, duration time.Duration) error
	KickUser(ctx context.Context, groupID, userID string, block bool) error
	MuteAllMembers(ctx context.Context, groupID string) error
}

// applyEffects executes the collected enforcement actions and sends the
// collected notifications. Each call is independent and failure-isolated:
// a failed recall still lets the mute proceed, and so on.
func (eng *Engine) applyEffects(ctx context.Context, logger *slog.Logger, evt *MessageEvent, pol policy.Policy, eff *Effects) {
	if eff.Recall {
		if err := eng.Actuator.RecallMessage(ctx, evt.GroupID, evt.MessageID); err != nil {
			logger.Error("recalling message failed", "err", err, "message", evt.MessageID)
			actionErrorCount.WithLabelValues("recall").Inc()
		} else {
			actionCount.WithLabelValues("recall").Inc()
		}
	}
	if eff.Mute != nil {
		if err := eng.Actuator.MuteUser(ctx, evt.GroupID, evt.UserID, *eff.Mute); err != nil {
			logger.Error("muting user failed", "err", err)
			actionErrorCount.WithLabelValues("mute").Inc()
		} else {
			logger.Info("muted user", "duration", *eff.Mute)
			actionCount.WithLabelValues("mute").Inc()
		}
	}
	if eff.Kick {
		if err := eng.Actuator.KickUser(ctx, evt.GroupID, evt.UserID, eff.KickBlock); err != nil {
			logger.Error("kicking user failed", "err", err, "block", eff.KickBlock)
			actionErrorCount.WithLabelValues("kick").Inc()
		} else {
			logger.Info("kicked user", "block", eff.KickBlock)
			actionCount.WithLabelValues("kick").Inc()
		}
	}
	if eff.Lockdown {
		if err := eng.Actuator.MuteAllMembers(ctx, evt.GroupID); err != nil {
			logger.Error("enabling group lockdown failed", "err", err)
			actionErrorCount.WithLabelValues("lockdown").Inc()
		} else {
			logger.Info("enabled group lockdown")
			actionCount.WithLabelValues("lockdown").Inc()
			if err := eng.Flags.Add(ctx, groupFlagKey(evt.GroupID), []string{FlagLockdown}, pol.Window()); err != nil {
				logger.Error("setting lockdown flag failed", "err", err)
			}
		}
	}
	for _, n := range eff.GroupNotices {
		if err := eng.Notifier.SendGroup(ctx, n.Target, n.Text); err != nil {
			logger.Error("sending group notification failed", "err", err, "target", n.Target)
			actionErrorCount.WithLabelValues("notify-group").Inc()
		}
	}
	for _, n := range eff.PrivateNotices {
		if err := eng.Notifier.SendPrivate(ctx, n.Target, n.Text); err != nil {
			logger.Error("sending private notification failed", "err", err, "target", n.Target)
			actionErrorCount.WithLabelValues("notify-private").Inc()
		}
	}
}
