package storefront

import (
	"sync"
	"time"
)

// TickerFunc starts a periodic tick source and returns it with its stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// AfterFunc runs fn once after d unless the returned stop is called first.
type AfterFunc func(d time.Duration, fn func()) (stop func() bool)

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func systemAfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// countdown decrements from a start value once per tick on its own goroutine.
type countdown struct {
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newCountdown() *countdown {
	return &countdown{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// run delivers from-1, from-2, ... 0 to onTick until onTick returns false,
// zero is reached or stop is called.
func (c *countdown) run(from int, interval time.Duration, newTicker TickerFunc, onTick func(remaining int) bool) {
	defer close(c.done)

	ticks, stopTicker := newTicker(interval)
	defer stopTicker()

	remaining := from
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticks:
			remaining--
			if !onTick(remaining) || remaining <= 0 {
				return
			}
		}
	}
}

func (c *countdown) stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
