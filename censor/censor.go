// Content-classification boundary for the moderation engine.
//
// This package defines the wire shape of censor API responses, the canonical
// verdict taxonomy, and the interpreters which map one to the other. It also
// ships an HTTP client for a Baidu-style content censor API, and optional
// verdict caching (in-memory or redis-backed).
package censor

import (
	"context"
)

// Conclusion labels returned by the censor API. These are wire values, not
// display strings.
const (
	ConclusionCompliant    = "合规"
	ConclusionNonCompliant = "不合规"
	ConclusionSuspected    = "疑似"
)

// Verdict is the canonical outcome of auditing a single content unit (one
// text body, or one image attachment). There is no fifth state.
type Verdict int

const (
	VerdictCompliant Verdict = iota
	VerdictNonCompliant
	VerdictSuspicious
	VerdictFailed
)

func (v Verdict) String() string {
	switch v {
	case VerdictCompliant:
		return "compliant"
	case VerdictNonCompliant:
		return "non-compliant"
	case VerdictSuspicious:
		return "suspicious"
	case VerdictFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// One annotation from the censor API, describing why content was flagged.
type RawItem struct {
	Msg  string `json:"msg,omitempty"`
	Type string `json:"type,omitempty"`
}

// Raw censor API response for one content unit. A non-empty Err marks a
// transport or provider failure; Conclusion and Data are only meaningful
// when Err is empty.
type RawResult struct {
	Err        string    `json:"error,omitempty"`
	Conclusion string    `json:"conclusion,omitempty"`
	Data       []RawItem `json:"data,omitempty"`
}

// Client is the classification provider boundary. Implementations must be
// safe for concurrent use; every call is independent. Provider-side failures
// are reported in RawResult.Err, not as a Go error; the error return is for
// context cancellation and similar caller-side conditions.
type Client interface {
	ClassifyText(ctx context.Context, text string) (*RawResult, error)
	ClassifyImage(ctx context.Context, imageURL string) (*RawResult, error)
}
