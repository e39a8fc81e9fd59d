package monitor

import (
	"sync"
	"time"
)

// Scheduler installs a recurring callback. The returned cancel stops it and
// is safe to call more than once.
type Scheduler interface {
	Schedule(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler runs fn on a time.Ticker in its own goroutine
type TickerScheduler struct{}

func (TickerScheduler) Schedule(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
