// Copyright (C) 2024 OblivKV Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package bench holds the tiny timing helper the benchmark CLI uses.
// It is deliberately not a general-purpose multi-timer registry: the
// CLI only ever times two things (an encode pass and a decode pass),
// and a named start/stop timer plus a one-shot wrapper cover both.
package bench

import (
	"fmt"
	"time"
)

// Timer measures one named phase via explicit Start/Stop calls.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
}

// NewTimer creates a Timer labeled name.
func NewTimer(name string) *Timer {
	return &Timer{name: name}
}

// Start records the current time as the phase's beginning.
func (t *Timer) Start() {
	t.start = time.Now()
}

// Stop records elapsed time since Start and returns it.
func (t *Timer) Stop() time.Duration {
	t.elapsed = time.Since(t.start)
	return t.elapsed
}

// Elapsed returns the duration captured by the last Stop call.
func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %s", t.name, t.elapsed)
}

// TimerOnce times a single invocation of f.
func TimerOnce(f func()) time.Duration {
	start := time.Now()
	f()
	return time.Since(start)
}
