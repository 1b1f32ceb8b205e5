// Moderation decision engine for group chat messages.
//
// The engine classifies each content unit of an inbound message (the text
// body, each image attachment) through an external censor provider, and
// drives an escalating enforcement response based on accumulated violation
// history: recall and notify on a first offense, mute past a per-user
// threshold, kick past a higher threshold, and group-wide lockdown past a
// per-group threshold. All counting happens over sliding time windows in a
// violation ledger; all enforcement goes through injected actuator and
// notifier boundaries.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chatwarden/chatwarden/censor"
	"github.com/chatwarden/chatwarden/flagstore"
	"github.com/chatwarden/chatwarden/ledger"
	"github.com/chatwarden/chatwarden/policy"
)

// Audited content unit kinds. Each unit runs the full decision algorithm
// independently.
const (
	ContentText  = "text"
	ContentImage = "image"
)

// One inbound chat event, as delivered by the hosting dispatch loop.
// GroupID empty means a private chat, which is never audited.
type MessageEvent struct {
	GroupID   string
	UserID    string
	MessageID string
	Text      string
	ImageURLs []string
}

// runtime for auditing messages and recording moderation actions.
//
// TODO: careful when initializing: Logger, Ledger, Actuator and Notifier
// should not be nil, even though they are pointer/interface types.
type Engine struct {
	Logger     *slog.Logger
	Classifier censor.Client
	Ledger     ledger.Ledger
	Flags      flagstore.FlagStore
	Actuator   Actuator
	Notifier   Notifier
	Config     policy.Config
}

// ProcessMessage audits every content unit of one message. Units are
// evaluated concurrently and independently; a failure in one never aborts
// its siblings. Collaborator failures (censor, actuator, notifier) are
// logged, not returned; only ledger infrastructure errors surface here.
func (eng *Engine) ProcessMessage(ctx context.Context, evt *MessageEvent) error {
	// similar to an HTTP server, we want to recover any panics from evaluation
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("message audit execution exception", "err", r, "group", evt.GroupID, "user", evt.UserID)
		}
	}()

	if evt.GroupID == "" {
		return nil
	}
	if !eng.Config.Enabled(evt.GroupID) {
		return nil
	}
	if eng.Classifier == nil {
		eng.Logger.Warn("censor client not configured, skipping audit", "group", evt.GroupID)
		return nil
	}

	start := time.Now()
	defer func() {
		messageProcessDuration.Observe(time.Since(start).Seconds())
	}()
	messageProcessCount.Inc()

	pol := policy.Resolve(evt.GroupID, eng.Config.Default, eng.Config.Overrides)

	type unit struct {
		kind    string
		content string
	}
	var units []unit
	if eng.Config.EnableTextCensor && evt.Text != "" {
		units = append(units, unit{ContentText, evt.Text})
	}
	if eng.Config.EnableImageCensor {
		for _, u := range evt.ImageURLs {
			units = append(units, unit{ContentImage, u})
		}
	}
	if len(units) == 0 {
		return nil
	}

	errChan := make(chan error, len(units))
	var wg sync.WaitGroup
	for _, u := range units {
		wg.Add(1)
		go func(u unit) {
			defer wg.Done()
			if err := eng.auditUnit(ctx, evt, pol, u.kind, u.content); err != nil {
				errChan <- err
			}
		}(u)
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			eventErrorCount.Inc()
			return err
		}
	}
	return nil
}

// auditUnit runs the full classify -> interpret -> evaluate -> apply
// pipeline for one content unit.
func (eng *Engine) auditUnit(ctx context.Context, evt *MessageEvent, pol policy.Policy, kind, content string) error {
	logger := eng.Logger.With("group", evt.GroupID, "user", evt.UserID, "kind", kind)

	var raw *censor.RawResult
	var err error
	switch kind {
	case ContentImage:
		raw, err = eng.Classifier.ClassifyImage(ctx, content)
	default:
		raw, err = eng.Classifier.ClassifyText(ctx, content)
	}

	var verdict censor.Verdict
	var reason string
	if err != nil {
		// caller-side failure (timeout, cancellation) is handled as a
		// classification failure, same as a provider error
		verdict, reason = censor.VerdictFailed, err.Error()
	} else if kind == ContentImage {
		verdict, reason = censor.InterpretImage(raw)
	} else {
		verdict, reason = censor.InterpretText(raw)
	}

	verdictCount.WithLabelValues(kind, verdict.String()).Inc()
	logger.Info("audit verdict", "verdict", verdict.String(), "reason", reason)

	eff := &Effects{}
	switch verdict {
	case censor.VerdictCompliant:
		return nil
	case censor.VerdictNonCompliant:
		if err := eng.evaluateViolation(ctx, evt, pol, kind, reason, eff); err != nil {
			return err
		}
	case censor.VerdictSuspicious:
		if pol.NotifyGroupID != "" {
			eff.NotifyGroup(pol.NotifyGroupID, suspiciousNotice(kind, evt.UserID, reason, pol.RuleID))
		}
	case censor.VerdictFailed:
		// owner-only private channel; never surfaces in the group
		if pol.BotOwnerID != "" {
			eff.NotifyPrivate(pol.BotOwnerID, failureNotice(kind, reason))
		}
	}

	eng.applyEffects(ctx, logger, evt, pol, eff)
	return nil
}
