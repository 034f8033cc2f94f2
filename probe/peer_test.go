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
	"testing"

	"github.com/probeum/go-probeum/common"
	"github.com/stretchr/testify/assert"
)

func TestMarkSeenReportsCollision(t *testing.T) {
	meta := NewPeerMetadataWithCapacity("alice", &fakePeer{id: "alice"}, probeKindBasic(), 8)
	h := common.Hash{0x01}

	assert.False(t, meta.MarkSeen(h), "first insertion is not a collision")
	assert.True(t, meta.MarkSeen(h), "second insertion of the same hash is a collision")
	assert.True(t, meta.HasSeen(h))
}

func TestIsTrusted(t *testing.T) {
	trusted := NewPeerMetadataWithCapacity("alice", &fakePeer{id: "alice"}, probeKindTrusted(), 8)
	basic := NewPeerMetadataWithCapacity("bob", &fakePeer{id: "bob"}, probeKindBasic(), 8)

	assert.True(t, trusted.IsTrusted())
	assert.False(t, basic.IsTrusted())
}

func TestPeerTableInsertRemove(t *testing.T) {
	table := NewPeerTable()
	meta := NewPeerMetadataWithCapacity("alice", &fakePeer{id: "alice"}, probeKindBasic(), 8)

	table.Insert(meta)
	assert.Equal(t, 1, table.Len())
	got, ok := table.Get("alice")
	assert.True(t, ok)
	assert.Same(t, meta, got)

	table.Remove("alice")
	assert.Equal(t, 0, table.Len())
	_, ok = table.Get("alice")
	assert.False(t, ok)
}

func TestSeenHashesReturnsTrackedHashes(t *testing.T) {
	meta := NewPeerMetadataWithCapacity("alice", &fakePeer{id: "alice"}, probeKindBasic(), 8)
	h1, h2 := common.Hash{0x01}, common.Hash{0x02}
	meta.MarkSeen(h1)
	meta.MarkSeen(h2)

	assert.ElementsMatch(t, []common.Hash{h1, h2}, meta.SeenHashes())
}
