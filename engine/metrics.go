package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "chatwarden_message_duration_sec",
	Help: "Total duration of message audit processing",
})

var messageProcessCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chatwarden_messages_processed",
	Help: "Number of messages processed",
})

var eventErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chatwarden_message_errors",
	Help: "Number of messages which failed processing",
})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_verdicts",
	Help: "Number of audited content units, by kind and verdict",
}, []string{"kind", "verdict"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_actions",
	Help: "Number of enforcement actions executed",
}, []string{"action"})

var actionErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_action_errors",
	Help: "Number of enforcement actions which failed",
}, []string{"action"})
