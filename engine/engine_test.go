package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden/censor"
	"github.com/chatwarden/chatwarden/flagstore"
	"github.com/chatwarden/chatwarden/ledger"

	"github.com/stretchr/testify/assert"
)

func nonCompliant(msg string) *censor.RawResult {
	return &censor.RawResult{
		Conclusion: censor.ConclusionNonCompliant,
		Data:       []censor.RawItem{{Msg: msg}},
	}
}

func sendText(t *testing.T, eng *Engine, group, user, text string, n int) {
	t.Helper()
	ctx := context.Background()
	evt := &MessageEvent{
		GroupID:   group,
		UserID:    user,
		MessageID: fmt.Sprintf("m%d", n),
		Text:      text,
	}
	assert.NoError(t, eng.ProcessMessage(ctx, evt))
}

func TestEngineCompliantNoEffect(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, actuator, notifier := EngineTestFixture()
	sendText(t, eng, "g1", "u1", "hello there", 1)

	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.Empty(actuator.Recalls)
	assert.Empty(notifier.Group)
	assert.Empty(notifier.Private)
}

func TestEngineSkipsDisabledAndPrivate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")

	// group not on the enablement list
	sendText(t, eng, "g9", "u1", "bad text", 1)
	// private chat
	assert.NoError(eng.ProcessMessage(ctx, &MessageEvent{UserID: "u1", Text: "bad text"}))
	// classifier unavailable
	eng.Classifier = nil
	sendText(t, eng, "g1", "u1", "bad text", 2)

	assert.Empty(actuator.Recalls)
	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestEngineEscalationLadder(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.KickUser = true
	eng.Config.Default.GroupViolationThreshold = 0

	// two violations: recall + notify, but below the mute threshold
	sendText(t, eng, "g1", "u1", "bad text", 1)
	sendText(t, eng, "g1", "u1", "bad text", 2)
	assert.Len(actuator.Recalls, 2)
	assert.Empty(actuator.Mutes)
	assert.Len(notifier.Group, 2)

	// third crosses the mute threshold
	sendText(t, eng, "g1", "u1", "bad text", 3)
	assert.Len(actuator.Mutes, 1)
	assert.Empty(actuator.Kicks)
	assert.Equal(24*time.Hour, actuator.Mutes[0].Duration)

	// fourth: still past the mute threshold, below the kick threshold
	sendText(t, eng, "g1", "u1", "bad text", 4)
	assert.Len(actuator.Mutes, 2)
	assert.Empty(actuator.Kicks)

	// fifth crosses the kick threshold: mute and kick both fire in the
	// same evaluation
	sendText(t, eng, "g1", "u1", "bad text", 5)
	assert.Len(actuator.Mutes, 3)
	assert.Len(actuator.Kicks, 1)
	assert.False(actuator.Kicks[0].Block)
	assert.Equal("u1", actuator.Kicks[0].UserID)
	assert.Empty(actuator.Lockdowns)
}

func TestEngineKickRequiresPolicyFlag(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.GroupViolationThreshold = 0
	// KickUser stays false

	for i := 0; i < 6; i++ {
		sendText(t, eng, "g1", "u1", "bad text", i)
	}
	assert.NotEmpty(actuator.Mutes)
	assert.Empty(actuator.Kicks)
}

func TestEngineKickWithBlock(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.KickUser = true
	eng.Config.Default.KickUserAndBlock = true
	eng.Config.Default.GroupViolationThreshold = 0

	for i := 0; i < 5; i++ {
		sendText(t, eng, "g1", "u1", "bad text", i)
	}
	assert.Len(actuator.Kicks, 1)
	assert.True(actuator.Kicks[0].Block)
}

func TestEngineThresholdZeroNeverFires(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.SingleUserViolationThreshold = 0
	eng.Config.Default.GroupViolationThreshold = 0

	for i := 0; i < 8; i++ {
		sendText(t, eng, "g1", "u1", "bad text", i)
	}
	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(8, c)
	assert.Empty(actuator.Mutes)
	assert.Empty(actuator.Kicks)
	assert.Empty(actuator.Lockdowns)
	// recall still happens per violation
	assert.Len(actuator.Recalls, 8)
}

func TestEngineIndependentContentUnits(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	classifier.Images["https://example.com/bad.png"] = nonCompliant("graphic")
	eng.Config.Default.GroupViolationThreshold = 0

	evt := &MessageEvent{
		GroupID:   "g1",
		UserID:    "u1",
		MessageID: "m1",
		Text:      "bad text",
		ImageURLs: []string{"https://example.com/bad.png"},
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))

	// two independent violations from one message
	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(2, c)
	c, err = eng.Ledger.CountGroup(ctx, "g1", time.Hour)
	assert.NoError(err)
	assert.Equal(2, c)
	assert.Len(actuator.Recalls, 2)
	assert.Len(notifier.Group, 2)
}

func TestEngineContentToggles(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	classifier.Images["https://example.com/bad.png"] = nonCompliant("graphic")
	eng.Config.EnableImageCensor = false

	evt := &MessageEvent{
		GroupID:   "g1",
		UserID:    "u1",
		MessageID: "m1",
		Text:      "bad text",
		ImageURLs: []string{"https://example.com/bad.png"},
	}
	assert.NoError(eng.ProcessMessage(ctx, evt))

	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(1, c)
	assert.Len(actuator.Recalls, 1)
}

func TestEngineSuspicious(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["iffy text"] = &censor.RawResult{Conclusion: censor.ConclusionSuspected}

	sendText(t, eng, "g1", "u1", "iffy text", 1)

	// notification only: no ledger write, no recall, no punishment
	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.Empty(actuator.Recalls)
	assert.Empty(actuator.Mutes)
	assert.Len(notifier.Group, 1)
	assert.Equal("notify1", notifier.Group[0].Target)
	assert.Empty(notifier.Private)
}

func TestEngineClassificationFailed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["bad text"] = &censor.RawResult{Err: "api down"}

	sendText(t, eng, "g1", "u1", "bad text", 1)

	// owner-only private channel, never the group notify-target
	c, err := eng.Ledger.CountUser(ctx, "g1", "u1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.Empty(actuator.Recalls)
	assert.Empty(notifier.Group)
	assert.Len(notifier.Private, 1)
	assert.Equal("owner1", notifier.Private[0].Target)

	// unrecognized conclusions route the same way
	classifier.Text["weird text"] = &censor.RawResult{Conclusion: "garbage"}
	sendText(t, eng, "g1", "u1", "weird text", 2)
	assert.Len(notifier.Private, 2)

	// no owner configured: nothing is sent anywhere
	eng.Config.Default.BotOwnerID = ""
	sendText(t, eng, "g1", "u1", "bad text", 3)
	assert.Len(notifier.Private, 2)
}

func TestEngineLockdownEdgeGuard(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.SingleUserViolationThreshold = 0
	eng.Config.Default.GroupViolationThreshold = 2

	sendText(t, eng, "g1", "u1", "bad text", 1)
	assert.Empty(actuator.Lockdowns)

	// second violation crosses the group threshold
	sendText(t, eng, "g1", "u2", "bad text", 2)
	assert.Len(actuator.Lockdowns, 1)
	active, err := flagstore.Has(ctx, eng.Flags, groupFlagKey("g1"), FlagLockdown)
	assert.NoError(err)
	assert.True(active)

	// further violations while locked down refresh the marker, but do not
	// re-fire mute-all or its notice
	sendText(t, eng, "g1", "u3", "bad text", 3)
	sendText(t, eng, "g1", "u1", "bad text", 4)
	assert.Len(actuator.Lockdowns, 1)

	lockdownNotices := 0
	for _, n := range notifier.Group {
		if n.Text == lockdownNotice("g1", 2, "default") {
			lockdownNotices++
		}
	}
	assert.Equal(1, lockdownNotices)
}

func TestEngineUserAndGroupLaddersIndependent(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.SingleUserViolationThreshold = 3
	eng.Config.Default.GroupViolationThreshold = 3

	// same user crosses both thresholds on the third violation: mute and
	// lockdown fire from the same evaluation
	for i := 0; i < 3; i++ {
		sendText(t, eng, "g1", "u1", "bad text", i)
	}
	assert.Len(actuator.Mutes, 1)
	assert.Len(actuator.Lockdowns, 1)
}

func TestEngineActuatorFailureIsolation(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, notifier := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.SingleUserViolationThreshold = 1
	eng.Config.Default.GroupViolationThreshold = 0
	actuator.RecallErr = fmt.Errorf("recall not permitted")

	sendText(t, eng, "g1", "u1", "bad text", 1)

	// failed recall does not abort the rest of the escalation
	assert.Empty(actuator.Recalls)
	assert.Len(actuator.Mutes, 1)
	assert.NotEmpty(notifier.Group)
}

func TestEngineWindowExpiryResetsLadder(t *testing.T) {
	assert := assert.New(t)

	eng, classifier, actuator, _ := EngineTestFixture()
	classifier.Text["bad text"] = nonCompliant("spam")
	eng.Config.Default.GroupViolationThreshold = 0

	now := time.Now()
	ml := eng.Ledger.(*ledger.MemLedger)
	ml.Now = func() time.Time { return now }

	// two violations inside the window
	sendText(t, eng, "g1", "u1", "bad text", 1)
	sendText(t, eng, "g1", "u1", "bad text", 2)
	assert.Empty(actuator.Mutes)

	// the window slides past them before the third arrives
	now = now.Add(10 * time.Minute)
	sendText(t, eng, "g1", "u1", "bad text", 3)
	assert.Empty(actuator.Mutes)

	// two more inside the fresh window cross the threshold again
	sendText(t, eng, "g1", "u1", "bad text", 4)
	sendText(t, eng, "g1", "u1", "bad text", 5)
	assert.Len(actuator.Mutes, 1)
}
