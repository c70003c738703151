package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// breakerTransport wraps the base RoundTripper with a circuit breaker.
// Network errors and 5xx responses count against the breaker; an open
// breaker fails the call immediately without touching the network.
type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker
	log  *zap.SugaredLogger
}

func newBreakerTransport(next http.RoundTripper, cfg Config, log *zap.SugaredLogger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        "lms-api",
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerTransport{next: next, cb: gobreaker.NewCircuitBreaker(st), log: log}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.cb.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	if r, ok := res.(*http.Response); ok {
		return r, nil
	}
	return nil, errors.New("invalid roundtrip result")
}
