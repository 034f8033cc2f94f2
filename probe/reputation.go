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

// ReputationChange enumerates the peer-protocol-violation penalties the
// manager applies through the network facade. It never terminates a
// connection directly; that decision belongs to whatever scores these
// changes on the network side.
type ReputationChange int

const (
	// ReputationAlreadySeenTransaction penalizes a peer that re-announces a
	// hash it already knows we have (anti-echo).
	ReputationAlreadySeenTransaction ReputationChange = iota
	// ReputationBadAnnouncement penalizes a malformed or abusive
	// NewPooledTransactionHashes message (empty, duplicated, wrong-family
	// entries, or entries rejected by the filter policy).
	ReputationBadAnnouncement
	// ReputationBadTransactions penalizes a peer that delivered a
	// transaction that turned out to be consensus-invalid, or a
	// Transactions broadcast containing a blob transaction.
	ReputationBadTransactions
	// ReputationBadProtocol penalizes a peer for speaking a capability it
	// doesn't support correctly (e.g. malformed response shape).
	ReputationBadProtocol
	// ReputationTimeout applies a mild penalty when a peer fails to
	// respond to a request in time.
	ReputationTimeout
)

func (r ReputationChange) String() string {
	switch r {
	case ReputationAlreadySeenTransaction:
		return "AlreadySeenTransaction"
	case ReputationBadAnnouncement:
		return "BadAnnouncement"
	case ReputationBadTransactions:
		return "BadTransactions"
	case ReputationBadProtocol:
		return "BadProtocol"
	case ReputationTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}
