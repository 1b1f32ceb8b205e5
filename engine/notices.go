package engine

import (
	"fmt"

	"github.com/chatwarden/chatwarden/policy"
)

func violationNotice(kind, userID, reason, ruleID string) string {
	return fmt.Sprintf("⚠️ Violation detected\nType: %s\nUser: %s\nReason: %s\nRule ID: %s", kind, userID, reason, ruleID)
}

func suspiciousNotice(kind, userID, reason, ruleID string) string {
	return fmt.Sprintf("❓ Suspected violation detected\nType: %s\nUser: %s\nReason: %s\nRule ID: %s\nPlease review and handle manually", kind, userID, reason, ruleID)
}

func failureNotice(kind, reason string) string {
	return fmt.Sprintf("⚠️ Content audit failed\nType: %s\nReason: %s\nPlease check API credentials and connectivity", kind, reason)
}

func muteNotice(groupID, userID string, count int, pol policy.Policy) string {
	return fmt.Sprintf("⚠️ User muted for violations\nGroup: %s\nUser: %s\nViolations: %d\nMuted for %d hours, admin attention requested.\nRule ID: %s",
		groupID, userID, count, pol.MuteDuration/3600, pol.RuleID)
}

func kickNotice(groupID, userID string, block bool, ruleID string) string {
	blocked := "no"
	if block {
		blocked = "yes"
	}
	return fmt.Sprintf("⚠️ User kicked for violations\nGroup: %s\nUser: %s\nRe-entry blocked: %s\nRule ID: %s", groupID, userID, blocked, ruleID)
}

func lockdownNotice(groupID string, count int, ruleID string) string {
	return fmt.Sprintf("⚠️ High volume of violations in group\nGroup: %s\nViolations: %d\nGroup-wide mute enabled, admins please handle promptly\nRule ID: %s", groupID, count, ruleID)
}
