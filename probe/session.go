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
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// handleNetworkEvent processes a peer session lifecycle event (§4.1
// "Session establishment" / "Session closure").
func (m *Manager) handleNetworkEvent(ev NetworkEvent) {
	switch ev.Kind {
	case EventSessionEstablished:
		m.onSessionEstablished(ev.Peer)
	case EventSessionClosed:
		m.onSessionClosed(ev.Peer.ID())
	}
}

func (m *Manager) onSessionEstablished(p probe.Peer) {
	kind := probe.KindBasic
	meta := NewPeerMetadataWithCapacity(p.ID(), p, kind, m.seenSetCapacity())
	m.peers.Insert(meta)
	m.propagation.OnSessionEstablished(meta)

	if m.network.IsInitiallySyncing() || m.network.TxGossipDisabled() {
		return
	}

	txs := m.pool.PooledTransactionsMax(m.cfg.HashAnnouncementLimit)
	if len(txs) == 0 {
		return
	}
	packet := probe.BuildAnnouncement(meta.Version, txs)
	if err := meta.Peer.SendNewPooledTransactionHashes(packet); err != nil {
		m.log.Debug("Failed to send initial pooled transaction hashes", "peer", meta.ID, "err", err)
		return
	}
	for _, tx := range txs {
		meta.MarkSeen(tx.Hash())
	}
}

func (m *Manager) onSessionClosed(id PeerId) {
	meta, ok := m.peers.Get(id)
	if !ok {
		return
	}
	m.propagation.OnSessionClosed(meta)
	m.peers.Remove(id)
	m.fetcher.Drop(id)
	m.tracker.Drop(id)
}

func (m *Manager) seenSetCapacity() int {
	if m.cfg.SeenSetCapacity > 0 {
		return m.cfg.SeenSetCapacity
	}
	return DefaultSeenSetCapacity
}

// checkTimeouts treats any peer whose outstanding GetPooledTransactions
// request has run longer than cfg.RequestTimeout as a fetch error, the
// same as an explicit evFetchError delivered over fetcherEvents.
func (m *Manager) checkTimeouts() {
	for _, peer := range m.fetcher.BusyPeers() {
		if !m.tracker.TimedOut(peer) {
			continue
		}
		m.tracker.Outcome(peer)
		m.fetcher.Error(peer)
		m.network.ReputationChange(peer, ReputationTimeout)
	}
}

// drainPendingFetch runs the fetcher's "drain pending-fetch" action: for
// every pending hash with an idle fallback peer, pack and dispatch a
// request. Gated upstream by backpressureOK.
func (m *Manager) drainPendingFetch() {
	ready := m.fetcher.ReadyPeers(func(peer string) bool { return !m.fetcher.IsBusy(peer) })
	for peer, hashes := range ready {
		selected, surplus := m.fetcher.Pack(hashes, m.fetcher.SizeOf)
		if len(surplus) > 0 {
			m.fetcher.Buffer(peer, surplus, nil)
		}
		if len(selected) == 0 {
			continue
		}
		if err := m.fetcher.Dispatch(peer, selected); err != nil {
			m.log.Debug("Failed to dispatch pending fetch", "peer", peer, "count", len(selected), "err", err)
		}
	}
}
