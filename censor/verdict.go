package censor

import (
	"strings"
)

const (
	reasonSuspected   = "content suspected of violation, requires manual review"
	reasonUnknown     = "unknown audit result"
	reasonEmptyResult = "empty audit response"
)

// InterpretText maps a raw text-censor response to a canonical verdict plus
// a single reason string. The mapping is total: every possible response
// (including nil) yields exactly one of the four verdicts.
func InterpretText(res *RawResult) (Verdict, string) {
	return interpret(res, false)
}

// InterpretImage is InterpretText for image-censor responses. The only
// difference is that image annotations without a "msg" field fall back to
// their "type" tag when assembling the reason string.
func InterpretImage(res *RawResult) (Verdict, string) {
	return interpret(res, true)
}

func interpret(res *RawResult, typeFallback bool) (Verdict, string) {
	if res == nil {
		return VerdictFailed, reasonEmptyResult
	}
	if res.Err != "" {
		return VerdictFailed, res.Err
	}
	switch res.Conclusion {
	case ConclusionCompliant:
		return VerdictCompliant, ""
	case ConclusionNonCompliant:
		var reasons []string
		for _, item := range res.Data {
			if item.Msg != "" {
				reasons = append(reasons, item.Msg)
			} else if typeFallback && item.Type != "" {
				reasons = append(reasons, item.Type)
			}
		}
		return VerdictNonCompliant, strings.Join(reasons, ", ")
	case ConclusionSuspected:
		return VerdictSuspicious, reasonSuspected
	default:
		return VerdictFailed, reasonUnknown
	}
}
