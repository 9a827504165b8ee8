package services

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport waits on a token bucket before each request.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewRateLimitedTransport wraps base with a limiter allowing rps requests per second.
//
// A non-positive rps returns base unchanged; a nil base uses [http.DefaultTransport].
func NewRateLimitedTransport(base http.RoundTripper, rps float64) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if rps <= 0 {
		return base
	}
	return &RateLimitedTransport{Base: base, Limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.Base.RoundTrip(req)
}
