// Package loop implements the single-goroutine event loop that drives
// a Dispatcher: it multiplexes incoming transport events and
// caller-scheduled timers onto one goroutine, and flushes the
// coalesced MOD broadcast after every iteration.
package loop

import (
	"sync/atomic"
	"time"

	"github.com/fieldOfView/zocp-go/dispatch"
	"github.com/fieldOfView/zocp-go/transport"
)

// Loop drives one Dispatcher from the caller's goroutine. It is not
// safe to call Step/Run from more than one goroutine.
type Loop struct {
	transport transport.Transport
	dispatch  *dispatch.Dispatcher
	timers    *Wheel
	stopped   atomic.Bool
}

// New builds a Loop over tr and d.
func New(tr transport.Transport, d *dispatch.Dispatcher) *Loop {
	return &Loop{transport: tr, dispatch: d, timers: NewWheel()}
}

// ScheduleRepeating runs cb every interval until the returned cancel
// func is called.
func (l *Loop) ScheduleRepeating(interval time.Duration, cb func()) (cancel func()) {
	return l.timers.Add(interval, cb)
}

// Step waits for either the next transport event or the next due
// timer, whichever comes first. An event is processed together with
// every further event already queued behind it; a due timer is fired.
// Step then flushes any mutation the dispatcher accumulated. It
// returns promptly once timeout has elapsed even if nothing happened.
func (l *Loop) Step(timeout time.Duration) {
	defer l.dispatch.EndIteration()

	deadline := time.Now().Add(timeout)
	wait := l.timers.NextDue(deadline)

	select {
	case ev := <-l.transport.Events():
		l.dispatch.HandleTransportEvent(ev)
		for drained := false; !drained; {
			select {
			case ev := <-l.transport.Events():
				l.dispatch.HandleTransportEvent(ev)
			default:
				drained = true
			}
		}
	case <-time.After(wait):
		l.timers.Fire()
	}
}

// Run calls Step in a loop, using timeout as the per-iteration timer
// granularity, until Stop is called.
func (l *Loop) Run(timeout time.Duration) {
	l.stopped.Store(false)
	for !l.stopped.Load() {
		l.Step(timeout)
	}
}

// Stop ends a running Run loop after its current iteration.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}
