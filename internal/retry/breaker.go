package retry

import (
	"sync"
	"time"
)

// breakerState tracks one endpoint class.
type breakerState struct {
	consecutive int
	openedAt    time.Time
	probing     bool
}

// Breaker is a per-endpoint-class circuit breaker. After threshold
// consecutive retryable failures the circuit opens: calls fail fast for the
// cooldown window, then a single half-open probe is let through. A probe
// success closes the circuit, a probe failure re-opens it for another
// cooldown.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	states map[string]*breakerState
}

// NewBreaker constructs a Breaker. threshold and cooldown must be positive.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		states:    make(map[string]*breakerState),
	}
}

// Allow reports whether a call for the given class may proceed. When the
// circuit is open it returns ErrCircuitOpen, except for the single half-open
// probe after the cooldown has elapsed.
func (b *Breaker) Allow(class string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[class]
	if !ok || st.consecutive < b.threshold {
		return nil
	}

	if b.now().Sub(st.openedAt) < b.cooldown {
		return ErrCircuitOpen
	}

	// Cooldown elapsed: admit exactly one probe, hold everyone else.
	if st.probing {
		return ErrCircuitOpen
	}
	st.probing = true
	return nil
}

// Record feeds the outcome of a call back into the breaker. A success
// closes the circuit for the class; a failure increments the consecutive
// counter and (re)opens the circuit once the threshold is reached.
func (b *Breaker) Record(class string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[class]
	if !ok {
		st = &breakerState{}
		b.states[class] = st
	}

	if err == nil {
		st.consecutive = 0
		st.probing = false
		return
	}

	st.consecutive++
	st.probing = false
	if st.consecutive >= b.threshold {
		st.openedAt = b.now()
	}
}
