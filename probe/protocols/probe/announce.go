// Copyright 2021 The go-probeum Authors
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

import "github.com/probeum/go-probeum/common"

// BuildAnnouncement constructs a NewPooledTransactionHashes message shaped
// for the given peer version: v1-family carries hashes only, v2-family
// carries parallel hashes/types/sizes vectors.
func BuildAnnouncement(version Version, txs []PooledTx) NewPooledTransactionHashesPacket {
	packet := NewPooledTransactionHashesPacket{
		Hashes: make([]common.Hash, len(txs)),
	}
	if version.IsV2Family() {
		packet.Types = make([]byte, len(txs))
		packet.Sizes = make([]uint32, len(txs))
	}
	for i, tx := range txs {
		packet.Hashes[i] = tx.Hash()
		if version.IsV2Family() {
			packet.Types[i] = byte(tx.Type())
			packet.Sizes[i] = tx.Size()
		}
	}
	return packet
}

// BuildHashAnnouncement is the variant for callers that hold only hashes
// (and optionally their types and sizes), not transaction objects. Missing
// type or size entries are encoded as zero in v2-family packets.
func BuildHashAnnouncement(version Version, hashes []common.Hash, types []common.TxType, sizes []uint32) NewPooledTransactionHashesPacket {
	packet := NewPooledTransactionHashesPacket{Hashes: hashes}
	if version.IsV2Family() {
		packet.Types = make([]byte, len(hashes))
		packet.Sizes = make([]uint32, len(hashes))
		for i := range hashes {
			if i < len(types) {
				packet.Types[i] = byte(types[i])
			}
			if i < len(sizes) {
				packet.Sizes[i] = sizes[i]
			}
		}
	}
	return packet
}

// Validate checks the version-conformance rule of §4.1 step 8: v2-family
// entries must all carry (type, size); v1-family entries must carry
// neither. It returns the indices of well-formed entries and whether any
// malformed entry was dropped (which should trigger a reputation penalty
// upstream).
func Validate(version Version, packet NewPooledTransactionHashesPacket) (keep []int, malformed bool) {
	n := len(packet.Hashes)
	keep = make([]int, 0, n)
	for i := 0; i < n; i++ {
		entryHasMeta := i < len(packet.Types) && i < len(packet.Sizes)
		switch {
		case version.IsV2Family() && !entryHasMeta:
			// v2-family entry missing (type, size): dropped, peer flagged.
			malformed = true
		case !version.IsV2Family() && entryHasMeta:
			// v1-family entry must never carry (type, size).
			malformed = true
		default:
			keep = append(keep, i)
		}
	}
	return keep, malformed
}
