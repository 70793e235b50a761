package collector

import (
	"sync"
	"time"
)

// waitGroup wraps sync.WaitGroup with a bounded wait for the shutdown
// coordinator's join phase, which must proceed on timeout rather than
// block forever.
type waitGroup struct {
	sync.WaitGroup
}

// WaitTimeout blocks until every Add'd goroutine calls Done, or deadline
// elapses. It returns true if every goroutine joined in time.
func (w *waitGroup) WaitTimeout(deadline time.Duration) bool {
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(deadline):
		return false
	}
}
