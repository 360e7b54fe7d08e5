// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 The ipaget Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package progress observes byte transfers and reports them to a Meter
// at a fixed wall-clock interval.
package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is how often a Tracker samples a transfer.
const DefaultInterval = 100 * time.Millisecond

// Sample is one observation of a transfer in flight.
type Sample struct {
	// Transferred is the cumulative number of bytes seen so far.
	Transferred int64
	// Total is the expected size, or -1 if unknown.
	Total int64
	// Rate is the transfer speed in bytes per second since the previous
	// sample.
	Rate float64
}

// Percentage returns floor(Transferred/Total*100). ok is false when the
// total size is unknown.
func (s Sample) Percentage() (pc int, ok bool) {
	if s.Total <= 0 {
		return 0, false
	}
	pc = int(s.Transferred * 100 / s.Total)
	if pc > 100 {
		pc = 100
	}
	return pc, true
}

// Meter is an interface to show progress to users.
type Meter interface {
	// Start a new progress bar; total is -1 when unknown.
	Start(label string, total int64)
	// Sample reports the state of the transfer.
	Sample(s Sample)
	// Finished the progress display
	Finished()
}

type nullMeter struct{}

func (nullMeter) Start(string, int64) {}
func (nullMeter) Sample(Sample)       {}
func (nullMeter) Finished()           {}

// Null is a Meter that does nothing.
var Null Meter = nullMeter{}

var timeNow = time.Now

// Tracker counts the bytes flowing through a transfer and hands samples
// to a Meter. Add may be called concurrently with Run; the meter is only
// ever called from the goroutine running Run and from Finish.
type Tracker struct {
	meter    Meter
	total    int64
	interval time.Duration

	transferred int64

	mu     sync.Mutex
	lastAt time.Time
	lastN  int64
}

// NewTracker starts meter for a transfer of the given total size (-1
// if unknown). An interval <= 0 means DefaultInterval.
func NewTracker(meter Meter, label string, total int64, interval time.Duration) *Tracker {
	if meter == nil {
		meter = Null
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if total < 0 {
		total = -1
	}
	meter.Start(label, total)
	return &Tracker{
		meter:    meter,
		total:    total,
		interval: interval,
		lastAt:   timeNow(),
	}
}

// Add records n more transferred bytes.
func (t *Tracker) Add(n int) {
	atomic.AddInt64(&t.transferred, int64(n))
}

// Write implements io.Writer so a Tracker can sit in an io.MultiWriter.
func (t *Tracker) Write(p []byte) (int, error) {
	t.Add(len(p))
	return len(p), nil
}

// Transferred returns the bytes recorded so far.
func (t *Tracker) Transferred() int64 {
	return atomic.LoadInt64(&t.transferred)
}

// Tick takes a sample as of now and passes it to the meter.
func (t *Tracker) Tick(now time.Time) Sample {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := atomic.LoadInt64(&t.transferred)
	var rate float64
	if dt := now.Sub(t.lastAt).Seconds(); dt > 0 {
		rate = float64(n-t.lastN) / dt
	}
	t.lastAt = now
	t.lastN = n

	s := Sample{Transferred: n, Total: t.total, Rate: rate}
	t.meter.Sample(s)
	return s
}

// Run samples the transfer every interval until stop is closed.
func (t *Tracker) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Tick(timeNow())
		case <-stop:
			return
		}
	}
}

// Finish takes a last sample and closes the meter.
func (t *Tracker) Finish() Sample {
	s := t.Tick(timeNow())
	t.meter.Finished()
	return s
}
