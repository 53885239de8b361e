package price

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Throttle caps the rate of outbound resolution calls. *rate.Limiter implements it.
type Throttle interface {
	Wait(ctx context.Context) error
}

// NewThrottle returns a limiter allowing requestsPerSecond calls, or nil (unthrottled)
// when requestsPerSecond is not positive.
func NewThrottle(requestsPerSecond float64) Throttle {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(requestsPerSecond))
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
