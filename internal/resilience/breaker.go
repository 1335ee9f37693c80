package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrOpen is returned when the breaker rejects a call without trying it.
var ErrOpen = eris.New("resilience: breaker open")

// Breaker is a per-provider circuit breaker. After Threshold consecutive
// failures it rejects calls for Cooldown, then lets a single probe through.
// A successful probe closes the breaker; a failed one restarts the cooldown.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool

	now func() time.Time
}

// NewBreaker creates a breaker named for log lines. Non-positive threshold
// defaults to 5, non-positive cooldown to 30s.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a call may proceed. An open breaker past its
// cooldown allows one probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// Probe. Stay open until Record sees the outcome.
		return nil
	}
	return eris.Wrapf(ErrOpen, "%s", b.name)
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.open {
			zap.L().Info("breaker closed", zap.String("provider", b.name))
		}
		b.open = false
		b.failures = 0
		return
	}

	b.failures++
	b.openedAt = b.now()
	if !b.open && b.failures >= b.threshold {
		b.open = true
		zap.L().Warn("breaker opened",
			zap.String("provider", b.name),
			zap.Int("failures", b.failures),
		)
	}
}

// Open reports the breaker state, accounting for cooldown expiry.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && b.now().Sub(b.openedAt) < b.cooldown
}

// Call runs fn through the breaker.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.Allow(); err != nil {
		return zero, err
	}
	val, err := fn()
	b.Record(err)
	return val, err
}
