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
	"sync"

	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

func probeKindBasic() probe.PeerKind   { return probe.KindBasic }
func probeKindTrusted() probe.PeerKind { return probe.KindTrusted }

// fakeTx is a minimal probe.PooledTx test double.
type fakeTx struct {
	hash common.Hash
	typ  common.TxType
	size uint32
	blob bool
}

func (t fakeTx) Hash() common.Hash    { return t.hash }
func (t fakeTx) Type() common.TxType  { return t.typ }
func (t fakeTx) Size() uint32         { return t.size }
func (t fakeTx) IsBlob() bool         { return t.blob }

// fakePeer is a minimal probe.Peer test double recording every call it
// receives, guarded by a mutex since propagation may run from the event
// loop while a test goroutine inspects it.
type fakePeer struct {
	id      string
	version probe.Version
	client  string

	mu                sync.Mutex
	sentFull          []probe.TransactionsPacket
	sentAnnouncements []probe.NewPooledTransactionHashesPacket
	sentPooled        []probe.PooledTransactionsPacket
	requested         [][]common.Hash
	failRequest       error
}

func (p *fakePeer) ID() string                  { return p.id }
func (p *fakePeer) Version() probe.Version      { return p.version }
func (p *fakePeer) ClientVersion() string        { return p.client }

func (p *fakePeer) RequestTxs(hashes []common.Hash) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = append(p.requested, hashes)
	return p.failRequest
}

func (p *fakePeer) SendTransactions(txs probe.TransactionsPacket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentFull = append(p.sentFull, txs)
	return nil
}

func (p *fakePeer) SendNewPooledTransactionHashes(packet probe.NewPooledTransactionHashesPacket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentAnnouncements = append(p.sentAnnouncements, packet)
	return nil
}

func (p *fakePeer) SendPooledTransactions(txs probe.PooledTransactionsPacket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentPooled = append(p.sentPooled, txs)
	return nil
}

// fakePool is a minimal TxPool test double backed by an in-memory map.
type fakePool struct {
	mu       sync.Mutex
	txs      map[common.Hash]probe.PooledTx
	pending  chan common.Hash
	added    []probe.PooledTx
	reports  []PropagatedTransactions
	outcomes map[common.Hash]AddResult
}

func newFakePool() *fakePool {
	return &fakePool{
		txs:      make(map[common.Hash]probe.PooledTx),
		pending:  make(chan common.Hash, 64),
		outcomes: make(map[common.Hash]AddResult),
	}
}

func (p *fakePool) PendingTransactionsListener() <-chan common.Hash { return p.pending }

func (p *fakePool) PooledTransactionsMax(n int) []probe.PooledTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]probe.PooledTx, 0, n)
	for _, tx := range p.txs {
		if len(out) >= n {
			break
		}
		out = append(out, tx)
	}
	return out
}

func (p *fakePool) RetainUnknown(hashes []common.Hash) []common.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := hashes[:0]
	for _, h := range hashes {
		if _, ok := p.txs[h]; !ok {
			out = append(out, h)
		}
	}
	return out
}

func (p *fakePool) GetAll(hashes []common.Hash) []probe.PooledTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]probe.PooledTx, 0, len(hashes))
	for _, h := range hashes {
		if tx, ok := p.txs[h]; ok {
			out = append(out, tx)
		}
	}
	return out
}

func (p *fakePool) GetPooledTransactionElements(hashes []common.Hash, _ int) []probe.PooledTx {
	return p.GetAll(hashes)
}

func (p *fakePool) AddExternalTransactions(txs []probe.PooledTx) []AddResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]AddResult, 0, len(txs))
	for _, tx := range txs {
		p.added = append(p.added, tx)
		if res, ok := p.outcomes[tx.Hash()]; ok {
			results = append(results, res)
			continue
		}
		p.txs[tx.Hash()] = tx
		results = append(results, AddResult{Hash: tx.Hash(), Outcome: OutcomeAdded})
	}
	return results
}

func (p *fakePool) OnPropagated(report PropagatedTransactions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
}

// fakeNetwork is a minimal PeerBackend test double.
type fakeNetwork struct {
	events chan NetworkEvent

	mu          sync.Mutex
	syncing     bool
	initialSync bool
	gossipOff   bool
	penalties   []PeerId
	penaltyKind []ReputationChange
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{events: make(chan NetworkEvent, 64)}
}

func (n *fakeNetwork) EventListener() <-chan NetworkEvent { return n.events }
func (n *fakeNetwork) IsInitiallySyncing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.initialSync
}
func (n *fakeNetwork) IsSyncing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.syncing
}
func (n *fakeNetwork) TxGossipDisabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gossipOff
}
func (n *fakeNetwork) ReputationChange(peer PeerId, kind ReputationChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.penalties = append(n.penalties, peer)
	n.penaltyKind = append(n.penaltyKind, kind)
}
