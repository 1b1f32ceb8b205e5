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

// ScriptedClassifier returns canned results keyed by content (text body or
// image URL). Unknown content is compliant. Safe for concurrent use.
type ScriptedClassifier struct {
	Text   map[string]*censor.RawResult
	Images map[string]*censor.RawResult
}

var _ censor.Client = (*ScriptedClassifier)(nil)

func (c *ScriptedClassifier) ClassifyText(ctx context.Context, text string) (*censor.RawResult, error) {
	if res, ok := c.Text[text]; ok {
		return res, nil
	}
	return &censor.RawResult{Conclusion: censor.ConclusionCompliant}, nil
}

func (c *ScriptedClassifier) ClassifyImage(ctx context.Context, imageURL string) (*censor.RawResult, error) {
	if res, ok := c.Images[imageURL]; ok {
		return res, nil
	}
	return &censor.RawResult{Conclusion: censor.ConclusionCompliant}, nil
}

type MuteCall struct {
	GroupID  string
	UserID   string
	Duration time.Duration
}

type KickCall struct {
	GroupID string
	UserID  string
	Block   bool
}

// CaptureActuator records every enforcement call instead of executing it.
// Optional per-method error hooks simulate platform failures.
type CaptureActuator struct {
	mu        sync.Mutex
	Recalls   []string
	Mutes     []MuteCall
	Kicks     []KickCall
	Lockdowns []string

	RecallErr error
	MuteErr   error
}

var _ Actuator = (*CaptureActuator)(nil)

func (a *CaptureActuator) RecallMessage(ctx context.Context, groupID, messageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.RecallErr != nil {
		return a.RecallErr
	}
	a.Recalls = append(a.Recalls, messageID)
	return nil
}

func (a *CaptureActuator) MuteUser(ctx context.Context, groupID, userID string, duration time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.MuteErr != nil {
		return a.MuteErr
	}
	a.Mutes = append(a.Mutes, MuteCall{GroupID: groupID, UserID: userID, Duration: duration})
	return nil
}

func (a *CaptureActuator) KickUser(ctx context.Context, groupID, userID string, block bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Kicks = append(a.Kicks, KickCall{GroupID: groupID, UserID: userID, Block: block})
	return nil
}

func (a *CaptureActuator) MuteAllMembers(ctx context.Context, groupID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Lockdowns = append(a.Lockdowns, groupID)
	return nil
}

// CaptureNotifier records notifications instead of delivering them.
type CaptureNotifier struct {
	mu      sync.Mutex
	Group   []Notice
	Private []Notice
}

var _ Notifier = (*CaptureNotifier)(nil)

func (n *CaptureNotifier) SendGroup(ctx context.Context, groupID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Group = append(n.Group, Notice{Target: groupID, Text: text})
	return nil
}

func (n *CaptureNotifier) SendPrivate(ctx context.Context, userID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Private = append(n.Private, Notice{Target: userID, Text: text})
	return nil
}

// EngineTestFixture wires an engine against in-memory stores, a scripted
// classifier, and capture collaborators. Intentionally exported, for use in
// other packages.
func EngineTestFixture() (*Engine, *ScriptedClassifier, *CaptureActuator, *CaptureNotifier) {
	classifier := &ScriptedClassifier{
		Text:   make(map[string]*censor.RawResult),
		Images: make(map[string]*censor.RawResult),
	}
	actuator := &CaptureActuator{}
	notifier := &CaptureNotifier{}
	def := policy.Default()
	def.NotifyGroupID = "notify1"
	def.BotOwnerID = "owner1"
	eng := &Engine{
		Logger:     slog.Default(),
		Classifier: classifier,
		Ledger:     ledger.NewMemLedger(),
		Flags:      flagstore.NewMemFlagStore(),
		Actuator:   actuator,
		Notifier:   notifier,
		Config: policy.Config{
			EnabledGroups:     []string{"g1"},
			EnableTextCensor:  true,
			EnableImageCensor: true,
			Default:           def,
		},
	}
	return eng, classifier, actuator, notifier
}
