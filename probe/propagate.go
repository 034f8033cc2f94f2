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
	"math"

	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// propagationMode selects how outbound propagation treats a peer's
// seen-set (§4.2 "Per-peer filtering").
type propagationMode int

const (
	// propagateBasic skips a candidate transaction for a peer that has
	// already seen it.
	propagateBasic propagationMode = iota
	// propagateForced sends regardless of the peer's seen-set, used by
	// operator commands.
	propagateForced
)

// propagate runs the full/hash split of §4.2 over txs for every eligible
// connected peer.
func (m *Manager) propagate(txs []probe.PooledTx, mode propagationMode) {
	if m.network.IsInitiallySyncing() || m.network.TxGossipDisabled() {
		return
	}
	if len(txs) == 0 {
		return
	}

	peers := m.peers.IDs()
	n := len(peers)
	if n == 0 {
		return
	}
	maxFull := int(math.Ceil(math.Sqrt(float64(n))))

	report := PropagatedTransactions{Recipients: make(map[common.Hash][]PropagatedTo)}

	for i, id := range peers {
		meta, ok := m.peers.Get(id)
		if !ok || !m.propagation.CanPropagate(meta) {
			continue
		}
		full := i < maxFull
		m.propagateToPeer(meta, txs, full, mode, &report)
	}

	m.pool.OnPropagated(report)
}

// propagateToPeer builds and dispatches the full/hash buckets for a single
// peer, per §4.2's packing rules.
func (m *Manager) propagateToPeer(meta *PeerMetadata, txs []probe.PooledTx, full bool, mode propagationMode, report *PropagatedTransactions) {
	var fullBucket []probe.PooledTx
	var hashBucket []probe.PooledTx
	var fullBytes int

	for _, tx := range txs {
		if mode == propagateBasic && meta.HasSeen(tx.Hash()) {
			continue
		}
		if !full || tx.IsBlob() {
			// 4844 exception: blob transactions are never broadcastable
			// in full, regardless of mode.
			hashBucket = append(hashBucket, tx)
			continue
		}
		cost := int(tx.Size())
		if len(fullBucket) > 0 && fullBytes+cost > m.broadcastLimit() {
			hashBucket = append(hashBucket, tx)
			continue
		}
		fullBucket = append(fullBucket, tx)
		fullBytes += cost
	}

	if len(hashBucket) > m.cfg.HashAnnouncementLimit {
		hashBucket = hashBucket[:m.cfg.HashAnnouncementLimit]
	}

	if len(fullBucket) > 0 {
		if err := meta.Peer.SendTransactions(probe.TransactionsPacket(fullBucket)); err != nil {
			m.log.Debug("Failed to send transactions", "peer", meta.ID, "err", err)
		} else {
			for _, tx := range fullBucket {
				meta.MarkSeen(tx.Hash())
				recordPropagation(report, tx.Hash(), meta.ID, KindFull)
			}
		}
	}
	if len(hashBucket) > 0 {
		packet := probe.BuildAnnouncement(meta.Version, hashBucket)
		if err := meta.Peer.SendNewPooledTransactionHashes(packet); err != nil {
			m.log.Debug("Failed to send hash announcement", "peer", meta.ID, "err", err)
		} else {
			for _, tx := range hashBucket {
				meta.MarkSeen(tx.Hash())
				recordPropagation(report, tx.Hash(), meta.ID, KindHash)
			}
		}
	}
}

func (m *Manager) broadcastLimit() int {
	if m.cfg.BroadcastMessageLimit > 0 {
		return m.cfg.BroadcastMessageLimit
	}
	return DefaultBroadcastMessageSoftLimit
}

func recordPropagation(report *PropagatedTransactions, h common.Hash, peer PeerId, kind PropagationKind) {
	report.Recipients[h] = append(report.Recipients[h], PropagatedTo{Peer: peer, Kind: kind})
}

// handleCommand dispatches one command from the ManagerHandle.
func (m *Manager) handleCommand(c command) {
	switch cmd := c.(type) {
	case cmdPropagateHash:
		txs := m.pool.GetAll([]common.Hash{cmd.hash})
		m.propagate(txs, propagateBasic)

	case cmdPropagateHashesToPeer:
		m.propagateHashesToPeer(cmd.peer, cmd.hashes)

	case cmdPropagateTransactions:
		m.propagate(cmd.txs, propagateBasic)

	case cmdBroadcastTransactions:
		m.propagate(cmd.txs, propagateForced)

	case cmdGetActivePeers:
		cmd.resp <- m.peers.IDs()
		close(cmd.resp)

	case cmdGetTransactionHashes:
		meta, ok := m.peers.Get(cmd.peer)
		if !ok {
			close(cmd.resp)
			return
		}
		cmd.resp <- meta.SeenHashes()
		close(cmd.resp)

	case cmdGetPeerSender:
		meta, ok := m.peers.Get(cmd.peer)
		if !ok {
			close(cmd.resp)
			return
		}
		cmd.resp <- meta.Peer
		close(cmd.resp)
	}
}

// propagateHashesToPeer hash-announces hashes directly to a single peer,
// bypassing the full/hash split (used by the propagate-hashes-to-peer
// command).
func (m *Manager) propagateHashesToPeer(id PeerId, hashes []common.Hash) {
	meta, ok := m.peers.Get(id)
	if !ok || len(hashes) == 0 {
		return
	}
	txs := m.pool.GetAll(hashes)
	if len(txs) == 0 {
		return
	}
	packet := probe.BuildAnnouncement(meta.Version, txs)
	if err := meta.Peer.SendNewPooledTransactionHashes(packet); err != nil {
		m.log.Debug("Failed to send targeted hash announcement", "peer", id, "err", err)
		return
	}
	for _, tx := range txs {
		meta.MarkSeen(tx.Hash())
	}
}
