// Copyright 2021 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package probe

import (
	"sync"
	"time"
)

// RequestTracker keeps round-trip timings for outstanding
// GetPooledTransactions requests, keyed by peer. It is a bookkeeping-only
// component: the manager consults it to decide when a request has timed
// out, and a metrics sink (out of scope here) would attach to Outcome.
type RequestTracker struct {
	lock    sync.Mutex
	pending map[string]time.Time
	timeout time.Duration
}

// NewRequestTracker creates a tracker that considers a request timed out
// after the given duration.
func NewRequestTracker(timeout time.Duration) *RequestTracker {
	return &RequestTracker{
		pending: make(map[string]time.Time),
		timeout: timeout,
	}
}

// Track records the dispatch time of a request to peer.
func (t *RequestTracker) Track(peer string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending[peer] = time.Now()
}

// Outcome clears the tracked request for peer and reports its round-trip
// time, if one was being tracked.
func (t *RequestTracker) Outcome(peer string) (rtt time.Duration, ok bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	start, found := t.pending[peer]
	if !found {
		return 0, false
	}
	delete(t.pending, peer)
	return time.Since(start), true
}

// TimedOut reports whether peer's outstanding request (if any) has been
// pending longer than the tracker's timeout.
func (t *RequestTracker) TimedOut(peer string) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	start, found := t.pending[peer]
	if !found {
		return false
	}
	return time.Since(start) > t.timeout
}

// Drop discards any tracked request for peer without reporting an outcome,
// used on session closure.
func (t *RequestTracker) Drop(peer string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	delete(t.pending, peer)
}
