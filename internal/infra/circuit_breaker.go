package infra

import (
	"time"

	"foodie/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Protects calls to the remote catalog service. Trips after at least 3 requests
// in the window with a 60% failure ratio; probes again after the open timeout.

type CircuitBreakerConfig struct {
	MaxRequests uint32        // requests allowed through while half-open
	Interval    time.Duration // closed-state window after which counts reset
	OpenTimeout time.Duration // how long to stay open before probing
}

func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    15 * time.Second,
		OpenTimeout: 30 * time.Second,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// NewCircuitBreaker builds a named breaker that reports its state as a gauge
// and logs every state change.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.CatalogCircuitState.WithLabelValues(cbName).Set(stateValue(to))
			log.Warn().
				Str("circuit", cbName).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	metrics.CatalogCircuitState.WithLabelValues(name).Set(0)
	return cb
}
