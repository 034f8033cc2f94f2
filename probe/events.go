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

import "github.com/probeum/go-probeum/probe/protocols/probe"

// netTxEventKind discriminates the "network transaction events" source of
// §4.1's seven-source poll model.
type netTxEventKind int

const (
	evAnnouncement netTxEventKind = iota
	evBroadcast
	evGetPooledTransactions
)

// netTxEvent is pushed by whatever owns the wire session (out of scope
// here) onto the manager's inbound channel; the fields relevant to Kind
// are populated, the rest left zero.
type netTxEvent struct {
	kind         netTxEventKind
	peer         PeerId
	announcement probe.NewPooledTransactionHashesPacket
	broadcast    probe.TransactionsPacket
	getRequest   probe.GetPooledTransactionsPacket
}

// HandleAnnouncement queues an inbound NewPooledTransactionHashes message
// for processing on the event loop. Safe to call from any goroutine.
func (m *Manager) HandleAnnouncement(peer PeerId, packet probe.NewPooledTransactionHashesPacket) {
	m.netEvents <- netTxEvent{kind: evAnnouncement, peer: peer, announcement: packet}
}

// HandleTransactions queues an inbound Transactions broadcast.
func (m *Manager) HandleTransactions(peer PeerId, txs probe.TransactionsPacket) {
	m.netEvents <- netTxEvent{kind: evBroadcast, peer: peer, broadcast: txs}
}

// HandleGetPooledTransactions queues an inbound GetPooledTransactions
// request.
func (m *Manager) HandleGetPooledTransactions(peer PeerId, req probe.GetPooledTransactionsPacket) {
	m.netEvents <- netTxEvent{kind: evGetPooledTransactions, peer: peer, getRequest: req}
}

// fetcherEventKind discriminates the fetcher's response events (§4.3).
type fetcherEventKind int

const (
	evFetched fetcherEventKind = iota
	evFetchError
	evEmptyResponse
)

type fetcherEvent struct {
	kind fetcherEventKind
	peer PeerId
	txs  probe.PooledTransactionsPacket
	err  error
}

// HandlePooledTransactions delivers a (possibly partial) response to an
// earlier GetPooledTransactions request.
func (m *Manager) HandlePooledTransactions(peer PeerId, txs probe.PooledTransactionsPacket) {
	if len(txs) == 0 {
		m.fetcherEvents <- fetcherEvent{kind: evEmptyResponse, peer: peer}
		return
	}
	m.fetcherEvents <- fetcherEvent{kind: evFetched, peer: peer, txs: txs}
}

// HandleRequestFailure reports that an outstanding GetPooledTransactions
// request to peer failed at the transport level (connection dropped,
// malformed response rejected by the session layer, ...).
func (m *Manager) HandleRequestFailure(peer PeerId, err error) {
	m.fetcherEvents <- fetcherEvent{kind: evFetchError, peer: peer, err: err}
}

// importResult carries a completed pool-import batch back to the loop for
// classification. Whether the node was syncing is re-checked when the loop
// processes it, not captured at submission time (§9 open question).
type importResult struct {
	results []AddResult
}

// NetworkEvent / EventListener already declared in interfaces.go.
