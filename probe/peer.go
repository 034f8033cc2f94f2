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

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// DefaultSeenSetCapacity is the per-peer seen-set's default size (§4.4).
const DefaultSeenSetCapacity = 10240

// PeerMetadata tracks everything the manager knows about one connected
// session: its wire facade, negotiated version, trust kind, and the
// bounded LRU of hashes believed known to it.
type PeerMetadata struct {
	ID            PeerId
	Peer          probe.Peer
	Version       probe.Version
	ClientVersion string
	Kind          probe.PeerKind

	// seen is the per-peer seen-set: an LRU of hashes believed known to
	// this peer, per §4.4. Insert is O(1) amortized and reports whether
	// the hash was already present.
	seen *lru.Cache
}

// NewPeerMetadata constructs a PeerMetadata with the default seen-set
// capacity.
func NewPeerMetadata(id PeerId, p probe.Peer, kind probe.PeerKind) *PeerMetadata {
	return NewPeerMetadataWithCapacity(id, p, kind, DefaultSeenSetCapacity)
}

// NewPeerMetadataWithCapacity is NewPeerMetadata with a caller-chosen
// seen-set capacity, mainly useful in tests.
func NewPeerMetadataWithCapacity(id PeerId, p probe.Peer, kind probe.PeerKind, capacity int) *PeerMetadata {
	cache, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return &PeerMetadata{
		ID:            id,
		Peer:          p,
		Version:       p.Version(),
		ClientVersion: p.ClientVersion(),
		Kind:          kind,
		seen:          cache,
	}
}

// MarkSeen inserts h into the seen-set and reports whether it was already
// present (a collision, used for anti-echo accounting).
func (m *PeerMetadata) MarkSeen(h common.Hash) (collided bool) {
	_, collided = m.seen.Get(h)
	m.seen.Add(h, struct{}{})
	return collided
}

// HasSeen reports whether h is believed known to this peer, without
// touching LRU recency (a plain existence check).
func (m *PeerMetadata) HasSeen(h common.Hash) bool {
	return m.seen.Contains(h)
}

// IsTrusted reports whether this peer is configured as operator-trusted.
func (m *PeerMetadata) IsTrusted() bool {
	return m.Kind == probe.KindTrusted
}

// SeenHashes returns the hashes currently tracked in this peer's seen-set.
func (m *PeerMetadata) SeenHashes() []common.Hash {
	keys := m.seen.Keys()
	out := make([]common.Hash, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.(common.Hash))
	}
	return out
}

// PeerTable owns the set of currently-connected peers, keyed by PeerId. It
// is manager-owned state: no locking, mutated only from the event loop.
type PeerTable struct {
	peers map[PeerId]*PeerMetadata
}

// NewPeerTable constructs an empty peer table.
func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[PeerId]*PeerMetadata)}
}

func (t *PeerTable) Insert(meta *PeerMetadata) { t.peers[meta.ID] = meta }

func (t *PeerTable) Remove(id PeerId) { delete(t.peers, id) }

func (t *PeerTable) Get(id PeerId) (*PeerMetadata, bool) {
	m, ok := t.peers[id]
	return m, ok
}

func (t *PeerTable) Len() int { return len(t.peers) }

// Each iterates every currently-connected peer's metadata. Iteration order
// over a Go map is randomized by the runtime, which already satisfies the
// "must not be adversarially influenced by peer identity" requirement of
// §4.2 without any extra shuffling.
func (t *PeerTable) Each(fn func(*PeerMetadata)) {
	for _, m := range t.peers {
		fn(m)
	}
}

// IDs returns the currently-connected peer IDs, in randomized map order.
func (t *PeerTable) IDs() []PeerId {
	ids := make([]PeerId, 0, len(t.peers))
	for id := range t.peers {
		ids = append(ids, id)
	}
	return ids
}
