package common

import "context"

// Limiter bounds concurrent use of one shared external resource, e.g. a
// rate-limited service client used by several jobs at once. Each
// resource gets its own Limiter rather than a global lock so adapters
// block only on their own service.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot frees up or ctx is done. A nil Limiter
// admits everything.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) Release() {
	if l == nil {
		return
	}
	<-l.slots
}
