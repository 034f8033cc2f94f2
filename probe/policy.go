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

import "github.com/probeum/go-probeum/common"

// AnnouncementVerdict is the result of running the Announcement Filter
// Policy against one announcement entry.
type AnnouncementVerdict int

const (
	// VerdictAccept keeps the entry.
	VerdictAccept AnnouncementVerdict = iota
	// VerdictIgnore silently drops the entry, no penalty.
	VerdictIgnore
	// VerdictReject drops the entry; Decide's penalize result reports
	// whether the peer should be flagged for it.
	VerdictReject
)

// AnnouncementFilterPolicy decides, per surviving announcement entry
// (after dedup and pool-retain filtering), whether to keep it (§4.6).
type AnnouncementFilterPolicy interface {
	Decide(typ common.TxType, hash common.Hash, size uint32) (verdict AnnouncementVerdict, penalize bool)
}

// maxSizeByType bounds announced transaction size per known type. Sizes
// are illustrative soft ceilings, not consensus parameters (those live in
// the pool, out of scope here).
var maxSizeByType = map[common.TxType]uint32{
	common.LegacyTxType:     128 * 1024,
	common.AccessListTxType: 128 * 1024,
	common.DynamicFeeTxType: 128 * 1024,
	common.BlobTxType:       128 * 1024,
}

func sizeWithinCap(typ common.TxType, size uint32) bool {
	max, ok := maxSizeByType[typ]
	if !ok {
		return true
	}
	return size <= max
}

// StrictAnnouncementFilter accepts only well-known transaction types and
// rejects oversized entries, penalizing both violations.
type StrictAnnouncementFilter struct{}

func (StrictAnnouncementFilter) Decide(typ common.TxType, _ common.Hash, size uint32) (AnnouncementVerdict, bool) {
	if !common.KnownTxTypes[typ] {
		return VerdictReject, true
	}
	if !sizeWithinCap(typ, size) {
		return VerdictReject, true
	}
	return VerdictAccept, false
}

// RelaxedAnnouncementFilter accepts known types, ignores unknown types
// silently, and applies the same size caps (with penalty) as strict.
type RelaxedAnnouncementFilter struct{}

func (RelaxedAnnouncementFilter) Decide(typ common.TxType, _ common.Hash, size uint32) (AnnouncementVerdict, bool) {
	if !common.KnownTxTypes[typ] {
		return VerdictIgnore, false
	}
	if !sizeWithinCap(typ, size) {
		return VerdictReject, true
	}
	return VerdictAccept, false
}

// PropagationPolicy gates which peers are eligible for outbound
// propagation (§4.7). Implementations are fixed variants selected at
// manager construction, not a plugin chain.
type PropagationPolicy interface {
	CanPropagate(meta *PeerMetadata) bool
	OnSessionEstablished(meta *PeerMetadata)
	OnSessionClosed(meta *PeerMetadata)
}

// DefaultPropagationPolicy permits propagation to every connected peer.
type DefaultPropagationPolicy struct{}

func (DefaultPropagationPolicy) CanPropagate(*PeerMetadata) bool    { return true }
func (DefaultPropagationPolicy) OnSessionEstablished(*PeerMetadata) {}
func (DefaultPropagationPolicy) OnSessionClosed(*PeerMetadata)      {}

// TrustedOnlyPropagationPolicy restricts propagation to operator-trusted
// peers.
type TrustedOnlyPropagationPolicy struct{}

func (TrustedOnlyPropagationPolicy) CanPropagate(m *PeerMetadata) bool { return m.IsTrusted() }
func (TrustedOnlyPropagationPolicy) OnSessionEstablished(*PeerMetadata) {}
func (TrustedOnlyPropagationPolicy) OnSessionClosed(*PeerMetadata)      {}

// AllowListPropagationPolicy restricts propagation to an operator-provided
// set of peer IDs (plus any operator-trusted peer).
type AllowListPropagationPolicy struct {
	Allowed map[PeerId]struct{}
}

// NewAllowListPropagationPolicy builds a policy that permits the given
// peer IDs in addition to trusted peers.
func NewAllowListPropagationPolicy(ids []PeerId) *AllowListPropagationPolicy {
	allowed := make(map[PeerId]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return &AllowListPropagationPolicy{Allowed: allowed}
}

func (p *AllowListPropagationPolicy) CanPropagate(m *PeerMetadata) bool {
	if m.IsTrusted() {
		return true
	}
	_, ok := p.Allowed[m.ID]
	return ok
}

func (p *AllowListPropagationPolicy) OnSessionEstablished(*PeerMetadata) {}
func (p *AllowListPropagationPolicy) OnSessionClosed(*PeerMetadata)      {}
