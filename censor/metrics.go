package censor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var censorAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "chatwarden_censor_api_duration_sec",
	Help: "Duration of content censor API calls",
}, []string{"kind"})

var censorAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_censor_api_count",
	Help: "Number of content censor API calls, by kind and HTTP status code",
}, []string{"kind", "status"})

var censorTokenRefreshCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_censor_token_refresh_count",
	Help: "Number of censor API access token refreshes, by outcome",
}, []string{"outcome"})

var verdictCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatwarden_censor_cache_hits",
	Help: "Number of verdict cache hits, by content kind",
}, []string{"kind"})
