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
	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// PeerId keys the peer table by the hex node ID string, matching the
// teacher's peer-set convention.
type PeerId = string

// AddedOutcome classifies the result of a single transaction's admission
// into the pool.
type AddedOutcome int

const (
	// OutcomeAdded means the transaction was accepted into the pool.
	OutcomeAdded AddedOutcome = iota
	// OutcomeConsensusBad means the transaction failed a consensus-class
	// check. The pool makes that classification; handleImportResult only
	// acts on the outcome it reports.
	OutcomeConsensusBad
	// OutcomePoolRejected means the transaction was rejected for a
	// non-consensus reason (nonce gap, underpriced, already known, ...).
	OutcomePoolRejected
)

// PoolError is returned alongside a rejected outcome; Consensus reports
// whether the failure belongs to the bad-class set described in §4.1.
type PoolError struct {
	Err       error
	Consensus bool
}

func (e *PoolError) Error() string { return e.Err.Error() }

// AddResult is one entry of the batch result from AddExternalTransactions.
type AddResult struct {
	Hash    common.Hash
	Outcome AddedOutcome
	Err     *PoolError
}

// PropagationKind records whether a hash was sent full or hash-only.
type PropagationKind uint8

const (
	KindFull PropagationKind = iota
	KindHash
)

// PropagatedTransactions reports, per hash, which peers received it and how.
type PropagatedTransactions struct {
	Recipients map[common.Hash][]PropagatedTo
}

type PropagatedTo struct {
	Peer PeerId
	Kind PropagationKind
}

// TxPool is the facade the manager requires of the transaction pool. The
// pool's concrete transaction representation and storage are out of scope
// for this module; everything the manager needs is exposed here.
type TxPool interface {
	// PendingTransactionsListener returns a channel of hashes newly
	// admitted to the pending pool, for outbound propagation (§4.2).
	PendingTransactionsListener() <-chan common.Hash

	// PooledTransactionsMax returns up to n pooled transactions, used to
	// seed a newly established session (§4.1 "Session establishment").
	PooledTransactionsMax(n int) []probe.PooledTx

	// RetainUnknown drops, in place, the hashes the pool already holds.
	RetainUnknown(hashes []common.Hash) []common.Hash

	// GetAll resolves hashes to pooled transactions, omitting unknown ones.
	GetAll(hashes []common.Hash) []probe.PooledTx

	// GetPooledTransactionElements resolves hashes to pooled transactions,
	// bounded by a byte-size limit (response-byte soft limit).
	GetPooledTransactionElements(hashes []common.Hash, sizeLimit int) []probe.PooledTx

	// AddExternalTransactions submits a batch for pool admission.
	AddExternalTransactions(txs []probe.PooledTx) []AddResult

	// OnPropagated delivers a propagation report to the pool.
	OnPropagated(report PropagatedTransactions)
}

// NetworkEventKind discriminates NetworkEvent.
type NetworkEventKind int

const (
	EventSessionEstablished NetworkEventKind = iota
	EventSessionClosed
)

// NetworkEvent is a session lifecycle event delivered by the network facade.
type NetworkEvent struct {
	Kind NetworkEventKind
	Peer probe.Peer
}

// PeerBackend is the network facade the manager requires.
type PeerBackend interface {
	// EventListener streams peer session lifecycle events.
	EventListener() <-chan NetworkEvent

	IsInitiallySyncing() bool
	IsSyncing() bool
	TxGossipDisabled() bool

	ReputationChange(peer PeerId, kind ReputationChange)
}
