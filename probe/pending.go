// Copyright 2015 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package probe

import "github.com/probeum/go-probeum/common"

// PendingByPeer indexes mid-import transaction hashes to the set of peers
// that delivered them. An entry exists exactly as long as the transaction's
// import task is in flight or about to be (invariant §8.1).
type PendingByPeer struct {
	entries map[common.Hash]map[PeerId]struct{}
}

// NewPendingByPeer constructs an empty table.
func NewPendingByPeer() *PendingByPeer {
	return &PendingByPeer{entries: make(map[common.Hash]map[PeerId]struct{})}
}

// Has reports whether h already has a pending-by-peer entry.
func (p *PendingByPeer) Has(h common.Hash) bool {
	_, ok := p.entries[h]
	return ok
}

// AddSender records that peer delivered h. If h has no entry yet, one is
// created with peer as its sole sender; true is returned when this is the
// first time h has been seen (the caller should queue an import task).
func (p *PendingByPeer) AddSender(h common.Hash, peer PeerId) (firstSeen bool) {
	senders, ok := p.entries[h]
	if !ok {
		p.entries[h] = map[PeerId]struct{}{peer: {}}
		return true
	}
	senders[peer] = struct{}{}
	return false
}

// Senders returns the peers that delivered h, or nil if there is no entry.
func (p *PendingByPeer) Senders(h common.Hash) []PeerId {
	senders, ok := p.entries[h]
	if !ok {
		return nil
	}
	out := make([]PeerId, 0, len(senders))
	for id := range senders {
		out = append(out, id)
	}
	return out
}

// Clear removes h's entry, e.g. once its import result is classified.
func (p *PendingByPeer) Clear(h common.Hash) {
	delete(p.entries, h)
}

// Len reports the number of outstanding entries.
func (p *PendingByPeer) Len() int { return len(p.entries) }
