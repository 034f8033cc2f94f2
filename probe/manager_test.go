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
	"fmt"
	"testing"

	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager builds a Manager wired to in-memory test doubles, without
// starting its event loop: every scenario below drives the manager's
// handler methods directly for determinism.
func newTestManager(pool *fakePool, network *fakeNetwork) *Manager {
	cfg := DefaultManagerConfig(pool, network)
	m, _ := NewManager(cfg)
	return m
}

func establishPeer(m *Manager, id string, version probe.Version) *fakePeer {
	peer := &fakePeer{id: id, version: version, client: "testclient/1.0"}
	m.onSessionEstablished(peer)
	return peer
}

func TestSessionEstablishedSeedsInitialAnnouncement(t *testing.T) {
	pool := newFakePool()
	tx := fakeTx{hash: common.Hash{0x01}, typ: common.LegacyTxType, size: 100}
	pool.txs[tx.hash] = tx

	m := newTestManager(pool, newFakeNetwork())
	peer := establishPeer(m, "alice", probe.ETH68)

	require.Len(t, peer.sentAnnouncements, 1)
	assert.Equal(t, []common.Hash{tx.hash}, peer.sentAnnouncements[0].Hashes)

	meta, ok := m.peers.Get("alice")
	require.True(t, ok)
	assert.True(t, meta.HasSeen(tx.hash))
}

func TestHandleAnnouncementDispatchesFreshHash(t *testing.T) {
	pool := newFakePool()
	m := newTestManager(pool, newFakeNetwork())
	peer := establishPeer(m, "alice", probe.ETH68)

	h := common.Hash{0x02}
	packet := probe.NewPooledTransactionHashesPacket{
		Hashes: []common.Hash{h},
		Types:  []byte{byte(common.LegacyTxType)},
		Sizes:  []uint32{256},
	}
	m.handleAnnouncement("alice", packet)

	require.Len(t, peer.requested, 1)
	assert.Equal(t, []common.Hash{h}, peer.requested[0])
}

func TestHandleAnnouncementPenalizesEmptyMessage(t *testing.T) {
	network := newFakeNetwork()
	m := newTestManager(newFakePool(), network)
	establishPeer(m, "alice", probe.ETH68)

	m.handleAnnouncement("alice", probe.NewPooledTransactionHashesPacket{})

	require.Len(t, network.penalties, 1)
	assert.Equal(t, PeerId("alice"), network.penalties[0])
	assert.Equal(t, ReputationBadAnnouncement, network.penaltyKind[0])
}

func TestHandleAnnouncementPenalizesDuplicateHashes(t *testing.T) {
	network := newFakeNetwork()
	m := newTestManager(newFakePool(), network)
	establishPeer(m, "alice", probe.ETH68)

	h := common.Hash{0x03}
	packet := probe.NewPooledTransactionHashesPacket{
		Hashes: []common.Hash{h, h},
		Types:  []byte{byte(common.LegacyTxType), byte(common.LegacyTxType)},
		Sizes:  []uint32{64, 64},
	}
	m.handleAnnouncement("alice", packet)

	require.NotEmpty(t, network.penalties)
	assert.Equal(t, ReputationBadAnnouncement, network.penaltyKind[len(network.penaltyKind)-1])
}

func TestPropagateSplitsFullAndHashBuckets(t *testing.T) {
	pool := newFakePool()
	m := newTestManager(pool, newFakeNetwork())

	peers := make([]*fakePeer, 4)
	for i := range peers {
		peers[i] = establishPeer(m, fmt.Sprintf("peer%d", i), probe.ETH68)
	}

	tx := fakeTx{hash: common.Hash{0x04}, typ: common.LegacyTxType, size: 128}
	m.propagate([]probe.PooledTx{tx}, propagateBasic)

	var fullCount, hashCount int
	for _, p := range peers {
		if len(p.sentFull) > 0 {
			fullCount++
		}
		if len(p.sentAnnouncements) > 0 {
			hashCount++
		}
	}
	// maxFull = ceil(sqrt(4)) = 2.
	assert.Equal(t, 2, fullCount)
	assert.Equal(t, 2, hashCount)
	require.Len(t, pool.reports, 1)
}

func TestPropagateSkipsBlobTransactionsFromFullBucket(t *testing.T) {
	pool := newFakePool()
	m := newTestManager(pool, newFakeNetwork())
	peer := establishPeer(m, "solo", probe.ETH68)

	tx := fakeTx{hash: common.Hash{0x05}, typ: common.BlobTxType, size: 128, blob: true}
	m.propagate([]probe.PooledTx{tx}, propagateBasic)

	assert.Empty(t, peer.sentFull, "blob transactions must never be broadcast in full")
	require.Len(t, peer.sentAnnouncements, 1)
	assert.Equal(t, []common.Hash{tx.hash}, peer.sentAnnouncements[0].Hashes)
}

// TestPartialFetchResponseRebuffersUnreturnedHash exercises the partial-
// response scenario: alice (v1) announces two hashes, both get packed into
// one GetPooledTransactions request, and alice's response only resolves
// one of them. The unreturned hash must come back in the fetcher's
// pending-fetch set with a retry charged against it, and alice must be
// idle again so a later drain can re-dispatch to her.
func TestPartialFetchResponseRebuffersUnreturnedHash(t *testing.T) {
	pool := newFakePool()
	m := newTestManager(pool, newFakeNetwork())
	peer := establishPeer(m, "alice", probe.ETH67)

	hA, hB := common.Hash{0x0a}, common.Hash{0x0b}
	packet := probe.NewPooledTransactionHashesPacket{Hashes: []common.Hash{hA, hB}}
	m.handleAnnouncement("alice", packet)

	require.Len(t, peer.requested, 1)
	assert.ElementsMatch(t, []common.Hash{hA, hB}, peer.requested[0])
	assert.Equal(t, 2, m.fetcher.InflightLen())
	assert.True(t, m.fetcher.IsBusy("alice"))

	txA := fakeTx{hash: hA, typ: common.LegacyTxType, size: 64}
	m.handleFetcherEvent(fetcherEvent{kind: evFetched, peer: "alice", txs: probe.PooledTransactionsPacket{txA}})

	assert.Equal(t, 0, m.fetcher.InflightLen())
	assert.False(t, m.fetcher.IsBusy("alice"), "alice must be idle again after her response is processed")
	assert.Equal(t, 1, m.fetcher.PendingLen(), "h_B must be re-buffered, not dropped")

	ready := m.fetcher.ReadyPeers(func(p string) bool { return !m.fetcher.IsBusy(p) })
	assert.Equal(t, []common.Hash{hB}, ready["alice"], "alice remains a fallback for h_B")
}

func TestHandleBroadcastIgnoredDuringInitialSync(t *testing.T) {
	pool := newFakePool()
	network := newFakeNetwork()
	network.initialSync = true
	m := newTestManager(pool, network)
	establishPeer(m, "alice", probe.ETH68)

	tx := fakeTx{hash: common.Hash{0x09}, typ: common.LegacyTxType, size: 64}
	m.handleBroadcast("alice", probe.TransactionsPacket{tx})

	assert.Empty(t, pool.added, "pool size must be unchanged while initially syncing")
	assert.Empty(t, network.penalties, "no reputation change")
	assert.False(t, m.pending.Has(tx.hash))
}

func TestHandleImportResultSuppressesPenaltyWhileSyncing(t *testing.T) {
	network := newFakeNetwork()
	network.syncing = true
	m := newTestManager(newFakePool(), network)

	h := common.Hash{0x06}
	m.pending.AddSender(h, "alice")

	m.handleImportResult(importResult{results: []AddResult{{Hash: h, Outcome: OutcomeConsensusBad}}})

	assert.Empty(t, network.penalties, "no penalty should fire while the node is syncing")
	assert.False(t, m.badImports.Contains(h), "bad-import cache must not learn from sync-time rejections")
	assert.False(t, m.pending.Has(h))
}

func TestHandleImportResultPenalizesConsensusBadWhenSynced(t *testing.T) {
	network := newFakeNetwork()
	network.syncing = false
	m := newTestManager(newFakePool(), network)

	h := common.Hash{0x07}
	m.pending.AddSender(h, "alice")
	m.pending.AddSender(h, "bob")

	m.handleImportResult(importResult{results: []AddResult{{Hash: h, Outcome: OutcomeConsensusBad}}})

	assert.ElementsMatch(t, []PeerId{"alice", "bob"}, network.penalties)
	assert.True(t, m.badImports.Contains(h))
	assert.False(t, m.pending.Has(h))
}

func TestOnSessionClosedDropsFetcherState(t *testing.T) {
	m := newTestManager(newFakePool(), newFakeNetwork())
	establishPeer(m, "alice", probe.ETH68)

	h := common.Hash{0x08}
	m.fetcher.Buffer("alice", []common.Hash{h}, nil)
	require.NoError(t, m.fetcher.Dispatch("alice", []common.Hash{h}))

	m.onSessionClosed("alice")

	_, ok := m.peers.Get("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, m.fetcher.InflightLen())
}
