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
	"sync/atomic"

	mapset "github.com/deckarep/golang-set"

	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

func (m *Manager) handleNetTxEvent(ev netTxEvent) {
	switch ev.kind {
	case evAnnouncement:
		m.handleAnnouncement(ev.peer, ev.announcement)
	case evBroadcast:
		m.handleBroadcast(ev.peer, ev.broadcast)
	case evGetPooledTransactions:
		m.handleGetPooledTransactions(ev.peer, ev.getRequest)
	}
}

// handleAnnouncement runs the 13-step sequence of §4.1.
func (m *Manager) handleAnnouncement(peerID PeerId, packet probe.NewPooledTransactionHashesPacket) {
	// 1. Sync/gossip gating.
	if m.network.IsInitiallySyncing() || m.network.TxGossipDisabled() {
		return
	}
	// 2. Unknown peer.
	meta, ok := m.peers.Get(peerID)
	if !ok {
		m.log.Trace("Announcement from unknown peer", "peer", peerID)
		return
	}

	penalize := false

	// 3. Seen-set insertion + anti-echo accounting.
	collisions := 0
	for _, h := range packet.Hashes {
		if meta.MarkSeen(h) {
			collisions++
		}
	}
	if collisions > 0 {
		m.network.ReputationChange(peerID, ReputationAlreadySeenTransaction)
	}

	// 4. Empty announcement.
	if len(packet.Hashes) == 0 {
		m.network.ReputationChange(peerID, ReputationBadAnnouncement)
		return
	}

	// 5. Intra-message dedup.
	seen := mapset.NewThreadUnsafeSet()
	unique := make([]int, 0, len(packet.Hashes))
	duplicates := false
	for i, h := range packet.Hashes {
		if seen.Contains(h) {
			duplicates = true
			continue
		}
		seen.Add(h)
		unique = append(unique, i)
	}
	if duplicates {
		penalize = true
	}

	// 8. Version conformance (checked before the filter policy, as §4.1
	// numbers it, but naturally expressed over the already-deduped index
	// set here).
	keep, malformed := probe.Validate(meta.Version, subPacket(packet, unique))
	if malformed {
		penalize = true
	}

	type candidate struct {
		hash common.Hash
		typ  common.TxType
		size uint32
	}
	candidates := make([]candidate, 0, len(keep))
	for _, localIdx := range keep {
		origIdx := unique[localIdx]
		c := candidate{hash: packet.Hashes[origIdx]}
		if meta.Version.IsV2Family() {
			c.typ = common.TxType(packet.Types[origIdx])
			c.size = packet.Sizes[origIdx]
		}
		candidates = append(candidates, c)
	}

	// 6. Remove hashes already in the pending-by-peer table.
	filtered := candidates[:0]
	for _, c := range candidates {
		if m.pending.Has(c.hash) {
			continue
		}
		filtered = append(filtered, c)
	}
	candidates = filtered

	// 7. retain_unknown: drop hashes the pool already holds.
	hashes := make([]common.Hash, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.hash
	}
	unknown := m.pool.RetainUnknown(hashes)
	unknownSet := make(map[common.Hash]struct{}, len(unknown))
	for _, h := range unknown {
		unknownSet[h] = struct{}{}
	}
	filtered = candidates[:0]
	for _, c := range candidates {
		if _, ok := unknownSet[c.hash]; ok {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered

	// 9. Announcement Filter Policy, per surviving entry.
	filtered = candidates[:0]
	for _, c := range candidates {
		verdict, flag := m.announceFlt.Decide(c.typ, c.hash, c.size)
		if flag {
			penalize = true
		}
		if verdict == VerdictAccept {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered

	// 10. One BadAnnouncement penalty for the whole message if any
	// penalty condition fired above.
	if penalize {
		m.network.ReputationChange(peerID, ReputationBadAnnouncement)
	}

	if len(candidates) == 0 {
		return
	}

	survivingHashes := make([]common.Hash, len(candidates))
	survivingSizes := make([]uint32, len(candidates))
	for i, c := range candidates {
		survivingHashes[i] = c.hash
		survivingSizes[i] = c.size
	}

	// 11. Fetcher unseen/pending filter.
	fresh := m.fetcher.FilterUnseen(peerID, survivingHashes, survivingSizes)
	if len(fresh) == 0 {
		return
	}
	freshSizes := sizesFor(fresh, survivingHashes, survivingSizes)

	// 12/13. Busy peer buffers; idle peer gets a packed request dispatched.
	if m.fetcher.IsBusy(peerID) {
		m.fetcher.Buffer(peerID, fresh, freshSizes)
		return
	}
	sizeOf := func(h common.Hash) uint32 {
		for i, fh := range fresh {
			if fh == h {
				return freshSizes[i]
			}
		}
		return 0
	}
	selected, surplus := m.fetcher.Pack(fresh, sizeOf)
	if len(surplus) > 0 {
		m.fetcher.Buffer(peerID, surplus, nil)
	}
	if len(selected) == 0 {
		return
	}
	if err := m.fetcher.Dispatch(peerID, selected); err != nil {
		m.fetcher.Buffer(peerID, selected, nil)
	}
}

// subPacket builds the packet view restricted to the given original
// indices, used to run version-conformance validation over the
// already-deduplicated entry set.
func subPacket(packet probe.NewPooledTransactionHashesPacket, indices []int) probe.NewPooledTransactionHashesPacket {
	out := probe.NewPooledTransactionHashesPacket{Hashes: make([]common.Hash, len(indices))}
	hasMeta := len(packet.Types) > 0 || len(packet.Sizes) > 0
	if hasMeta {
		out.Types = make([]byte, 0, len(indices))
		out.Sizes = make([]uint32, 0, len(indices))
	}
	for i, idx := range indices {
		out.Hashes[i] = packet.Hashes[idx]
		if hasMeta && idx < len(packet.Types) && idx < len(packet.Sizes) {
			out.Types = append(out.Types, packet.Types[idx])
			out.Sizes = append(out.Sizes, packet.Sizes[idx])
		}
	}
	return out
}

func sizesFor(subset, universe []common.Hash, sizes []uint32) []uint32 {
	out := make([]uint32, len(subset))
	for i, h := range subset {
		for j, u := range universe {
			if u == h {
				out[i] = sizes[j]
				break
			}
		}
	}
	return out
}

// handleBroadcast processes an inbound Transactions message: blob
// transactions are rejected in bulk, then the remainder is imported via
// the shared import path.
func (m *Manager) handleBroadcast(peerID PeerId, txs probe.TransactionsPacket) {
	if m.network.IsInitiallySyncing() || m.network.TxGossipDisabled() {
		return
	}
	if _, ok := m.peers.Get(peerID); !ok {
		return
	}
	var blobsSeen bool
	kept := txs[:0]
	for _, tx := range txs {
		if tx.IsBlob() {
			blobsSeen = true
			continue
		}
		kept = append(kept, tx)
	}
	if blobsSeen {
		m.network.ReputationChange(peerID, ReputationBadTransactions)
	}
	if len(kept) == 0 {
		return
	}
	m.importBatch(peerID, kept)
}

// handleGetPooledTransactions answers a GetPooledTransactions request,
// bounded by the response-byte soft limit, and marks the returned hashes
// as seen by the requester.
func (m *Manager) handleGetPooledTransactions(peerID PeerId, req probe.GetPooledTransactionsPacket) {
	meta, ok := m.peers.Get(peerID)
	if !ok {
		return
	}
	txs := m.pool.GetPooledTransactionElements(req, m.cfg.ResponseByteSoftLimit)
	if len(txs) == 0 {
		return
	}
	if err := meta.Peer.SendPooledTransactions(probe.PooledTransactionsPacket(txs)); err != nil {
		m.log.Debug("Failed to send pooled transactions", "peer", peerID, "err", err)
		return
	}
	for _, tx := range txs {
		meta.MarkSeen(tx.Hash())
	}
}

// handleFetcherEvent processes a fetcher response/error/empty event.
func (m *Manager) handleFetcherEvent(ev fetcherEvent) {
	m.tracker.Outcome(ev.peer)
	switch ev.kind {
	case evFetched:
		returned := make([]common.Hash, len(ev.txs))
		for i, tx := range ev.txs {
			returned[i] = tx.Hash()
		}
		m.fetcher.Deliver(ev.peer, returned)
		m.importBatch(ev.peer, []probe.PooledTx(ev.txs))
	case evEmptyResponse:
		m.fetcher.Deliver(ev.peer, nil)
	case evFetchError:
		m.log.Debug("Transaction fetch failed", "peer", ev.peer, "err", ev.err)
		m.fetcher.Error(ev.peer)
		m.network.ReputationChange(ev.peer, ReputationTimeout)
	}
}

// importBatch runs the per-transaction import path of §4.1 and submits the
// batch to the pool as a single async task.
func (m *Manager) importBatch(peerID PeerId, txs []probe.PooledTx) {
	var toSubmit []probe.PooledTx
	for _, tx := range txs {
		h := tx.Hash()
		if m.pending.Has(h) {
			m.pending.AddSender(h, peerID)
			continue
		}
		if m.badImports.Contains(h) {
			m.network.ReputationChange(peerID, ReputationBadTransactions)
			continue
		}
		m.pending.AddSender(h, peerID)
		toSubmit = append(toSubmit, tx)
	}
	if len(toSubmit) == 0 {
		return
	}
	m.submitImport(toSubmit)
}

// submitImport dispatches a batch to the pool on a background task gated
// by the import semaphore, and funnels its result back through
// importResults for classification on the event loop. The semaphore is
// only ever tried, never blocked on: this runs on the single-owner loop
// goroutine, and a saturated semaphore must not stall the other six
// sources the loop multiplexes (§5). A batch that can't acquire a slot is
// dropped from the pending-by-peer table so a later announcement or
// broadcast of the same hashes gets another chance at admission.
func (m *Manager) submitImport(txs []probe.PooledTx) {
	if !m.importSem.TryAcquire(1) {
		m.log.Debug("Import semaphore saturated, deferring batch", "count", len(txs))
		for _, tx := range txs {
			m.pending.Clear(tx.Hash())
		}
		return
	}
	atomic.AddInt64(&m.importInFlightCount, 1)
	go func() {
		defer m.importSem.Release(1)
		defer atomic.AddInt64(&m.importInFlightCount, -1)

		outcomes := m.pool.AddExternalTransactions(txs)
		select {
		case m.importResults <- importResult{results: outcomes}:
		case <-m.quit:
		}
	}()
}

// handleImportResult classifies a completed import batch (§4.1 "Import
// path"). Sync state is consulted here, at processing time, not at
// submission time (§9 open question).
func (m *Manager) handleImportResult(res importResult) {
	syncing := m.network.IsSyncing()
	for _, r := range res.results {
		switch r.Outcome {
		case OutcomeAdded:
			m.pending.Clear(r.Hash)
		case OutcomeConsensusBad:
			if syncing {
				m.pending.Clear(r.Hash)
				continue
			}
			for _, p := range m.pending.Senders(r.Hash) {
				m.network.ReputationChange(p, ReputationBadTransactions)
			}
			m.badImports.Insert(r.Hash)
			m.pending.Clear(r.Hash)
		case OutcomePoolRejected:
			m.pending.Clear(r.Hash)
		}
	}
}

// handlePendingTx reacts to the pool's pending-transactions stream by
// triggering ordinary (basic-mode) outbound propagation for a single hash.
func (m *Manager) handlePendingTx(h common.Hash) {
	if m.network.IsInitiallySyncing() || m.network.TxGossipDisabled() {
		return
	}
	txs := m.pool.GetAll([]common.Hash{h})
	if len(txs) == 0 {
		return
	}
	m.propagate(txs, propagateBasic)
}
