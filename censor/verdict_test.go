package censor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretText(t *testing.T) {
	assert := assert.New(t)

	v, reason := InterpretText(&RawResult{Err: "connection refused"})
	assert.Equal(VerdictFailed, v)
	assert.Equal("connection refused", reason)

	v, reason = InterpretText(&RawResult{Conclusion: ConclusionCompliant})
	assert.Equal(VerdictCompliant, v)
	assert.Equal("", reason)

	v, reason = InterpretText(&RawResult{
		Conclusion: ConclusionNonCompliant,
		Data: []RawItem{
			{Msg: "prohibited content"},
			{Msg: "spam"},
		},
	})
	assert.Equal(VerdictNonCompliant, v)
	assert.Equal("prohibited content, spam", reason)

	v, reason = InterpretText(&RawResult{Conclusion: ConclusionSuspected})
	assert.Equal(VerdictSuspicious, v)
	assert.Equal(reasonSuspected, reason)

	v, reason = InterpretText(&RawResult{Conclusion: "whatever"})
	assert.Equal(VerdictFailed, v)
	assert.Equal(reasonUnknown, reason)

	v, _ = InterpretText(nil)
	assert.Equal(VerdictFailed, v)
}

// text interpretation never falls back to the per-item type tag; only image
// interpretation does
func TestInterpretTypeFallback(t *testing.T) {
	assert := assert.New(t)

	res := &RawResult{
		Conclusion: ConclusionNonCompliant,
		Data: []RawItem{
			{Msg: "prohibited content"},
			{Type: "politics"},
		},
	}

	v, reason := InterpretText(res)
	assert.Equal(VerdictNonCompliant, v)
	assert.Equal("prohibited content", reason)

	v, reason = InterpretImage(res)
	assert.Equal(VerdictNonCompliant, v)
	assert.Equal("prohibited content, politics", reason)
}

// every possible response shape maps to exactly one of the four verdicts
func TestInterpretTotality(t *testing.T) {
	assert := assert.New(t)

	cases := []*RawResult{
		nil,
		{},
		{Err: "x"},
		{Conclusion: ConclusionCompliant},
		{Conclusion: ConclusionNonCompliant},
		{Conclusion: ConclusionNonCompliant, Data: []RawItem{{}}},
		{Conclusion: ConclusionSuspected},
		{Conclusion: "garbage"},
		{Err: "x", Conclusion: ConclusionCompliant},
	}
	known := map[Verdict]bool{
		VerdictCompliant:    true,
		VerdictNonCompliant: true,
		VerdictSuspicious:   true,
		VerdictFailed:       true,
	}
	for _, c := range cases {
		v, _ := InterpretText(c)
		assert.True(known[v])
		v, _ = InterpretImage(c)
		assert.True(known[v])
	}
}
