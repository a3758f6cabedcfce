/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package taboo

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned stop function is called.
// Implementations must deliver calls on the goroutine that owns the Game.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

// TickerScheduler is a Scheduler backed by time.Ticker. Each tick is handed
// to Post, which should queue it onto the goroutine that owns the Game; with
// a nil Post ticks run on the ticker's goroutine.
type TickerScheduler struct {
	Post func(fn func())
}

func (s TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if s.Post != nil {
					s.Post(fn)
				} else {
					fn()
				}
			}
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() { close(done) })
	}
}

// Countdown counts whole seconds down to zero on a Scheduler.
//
// A tick that was already queued when the countdown was stopped, paused or
// restarted is recognised by its generation and dropped, so callbacks never
// fire for a countdown that is no longer running.
type Countdown struct {
	sched    Scheduler
	interval time.Duration

	remaining int
	running   bool
	paused    bool
	gen       uint64
	cancel    func()

	onTick   func(remaining int)
	onExpire func()
}

// NewCountdown returns a stopped countdown that ticks every interval
// (one second when interval is not positive).
func NewCountdown(sched Scheduler, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}

	return &Countdown{
		sched:    sched,
		interval: interval,
	}
}

// Start counts down from seconds, stopping any countdown already running.
// onTick receives the remaining seconds after every decrement; onExpire runs
// once when zero is reached, after which the countdown is stopped.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.Stop()

	c.remaining = seconds
	c.onTick = onTick
	c.onExpire = onExpire
	c.running = true
	c.schedule()
}

// Stop halts the countdown. Stopping a stopped countdown does nothing.
func (c *Countdown) Stop() {
	c.unschedule()
	c.running = false
	c.paused = false
}

// Pause suspends ticking, keeping the remaining time.
func (c *Countdown) Pause() bool {
	if !c.running || c.paused {
		return false
	}

	c.unschedule()
	c.paused = true

	return true
}

// Resume continues a paused countdown from where it stopped.
func (c *Countdown) Resume() bool {
	if !c.running || !c.paused {
		return false
	}

	c.paused = false
	c.schedule()

	return true
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) Running() bool {
	return c.running
}

func (c *Countdown) Paused() bool {
	return c.paused
}

func (c *Countdown) schedule() {
	gen := c.gen
	c.cancel = c.sched.Every(c.interval, func() {
		c.tick(gen)
	})
}

func (c *Countdown) unschedule() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Countdown) tick(gen uint64) {
	if gen != c.gen || !c.running || c.paused {
		return
	}

	c.remaining--
	if c.remaining < 0 {
		c.remaining = 0
	}

	if c.onTick != nil {
		c.onTick(c.remaining)
	}

	// onTick may have stopped or restarted us.
	if gen != c.gen || c.remaining > 0 {
		return
	}

	expire := c.onExpire
	c.Stop()

	if expire != nil {
		expire()
	}
}
