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

// Package probe defines the wire-level shapes of the probe transactions
// sub-protocol: the negotiated version enum, the message packet types, and
// the per-session Peer facade the manager drives. Actual RLPx transport and
// RLP encode/decode of these packets is out of scope for this module — the
// types here describe shape only.
package probe

import (
	"github.com/probeum/go-probeum/common"
)

// Version identifies a negotiated wire protocol version. Versions group
// into two families distinguished by their announcement shape.
type Version uint

const (
	// ETH67 is the v1-family: NewPooledTransactionHashes carries hashes only.
	ETH67 Version = 67
	// ETH68 is the v2-family: NewPooledTransactionHashes carries parallel
	// hashes/types/sizes vectors.
	ETH68 Version = 68
)

// IsV2Family reports whether the version's announcement encoding carries
// per-hash type and size metadata.
func (v Version) IsV2Family() bool { return v >= ETH68 }

// String implements fmt.Stringer.
func (v Version) String() string {
	switch v {
	case ETH67:
		return "probe/67"
	case ETH68:
		return "probe/68"
	default:
		return "probe/unknown"
	}
}

// PeerKind tags a connected peer's trust level, used by propagation policy.
type PeerKind uint8

const (
	// KindBasic is an ordinary, untrusted remote peer.
	KindBasic PeerKind = iota
	// KindTrusted is a peer configured by the operator as trusted
	// (static/trusted node list).
	KindTrusted
)

// NewPooledTransactionHashesPacket is the wire shape produced by the
// Versioned Hash Message Builder. Types and Sizes are empty for v1-family
// announcements and parallel to Hashes for v2-family ones.
type NewPooledTransactionHashesPacket struct {
	Types  []byte
	Sizes  []uint32
	Hashes []common.Hash
}

// GetPooledTransactionsPacket requests the pooled transactions matching the
// given hashes.
type GetPooledTransactionsPacket []common.Hash

// PooledTx is the manager's abstract view of a validated transaction. The
// pool's concrete transaction representation is out of scope for this
// module (§6); everything the manager needs from a transaction is exposed
// through this interface.
type PooledTx interface {
	Hash() common.Hash
	Type() common.TxType
	Size() uint32
	// IsBlob reports whether this is an EIP-4844 blob transaction, which
	// is never broadcastable in full (see propagation policy, §4.2).
	IsBlob() bool
}

// TransactionsPacket is a full-transaction broadcast or response.
type TransactionsPacket []PooledTx

// PooledTransactionsPacket is the response to a GetPooledTransactions
// request.
type PooledTransactionsPacket []PooledTx

// Peer is the per-session facade the manager drives to issue requests and
// sends. It is satisfied by the real RLPx session wrapper, which is outside
// this module's scope.
type Peer interface {
	ID() string
	Version() Version
	ClientVersion() string

	// RequestTxs sends a GetPooledTransactions request. Only one may be
	// outstanding per peer at a time (enforced by the fetcher, not here).
	RequestTxs(hashes []common.Hash) error

	// SendTransactions dispatches a full-broadcast Transactions message.
	SendTransactions(txs TransactionsPacket) error

	// SendNewPooledTransactionHashes dispatches an announcement built by the
	// Versioned Hash Message Builder.
	SendNewPooledTransactionHashes(packet NewPooledTransactionHashesPacket) error

	// SendPooledTransactions replies to a GetPooledTransactions request.
	SendPooledTransactions(txs PooledTransactionsPacket) error
}
