package breaker

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Settings tunes when the breaker opens.
type Settings struct {
	Name                string
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	// IsSuccessful classifies errors that should not count against the upstream, such as unknown symbols.
	IsSuccessful func(err error) bool
}

// Breaker stops calling an upstream that keeps failing.
type Breaker struct{ cb *cb.CircuitBreaker }

func New(s Settings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.MinRequests == 0 {
		s.MinRequests = 20
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.5
	}
	st := cb.Settings{Name: s.Name, Interval: s.Interval, Timeout: s.OpenTimeout, IsSuccessful: s.IsSuccessful}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= s.ConsecutiveFailures {
			return true
		}
		if counts.Requests < s.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > s.FailureRatio
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

func (b *Breaker) Execute(fn func() (any, error)) (any, error) { return b.cb.Execute(fn) }

func (b *Breaker) State() string { return b.cb.State().String() }

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return err == cb.ErrOpenState || err == cb.ErrTooManyRequests
}
