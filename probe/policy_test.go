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
	"testing"

	"github.com/probeum/go-probeum/common"
	"github.com/stretchr/testify/assert"
)

func TestStrictAnnouncementFilterRejectsUnknownType(t *testing.T) {
	var f StrictAnnouncementFilter
	verdict, penalize := f.Decide(common.TxType(0x7f), common.Hash{}, 1024)
	assert.Equal(t, VerdictReject, verdict)
	assert.True(t, penalize)
}

func TestStrictAnnouncementFilterRejectsOversized(t *testing.T) {
	var f StrictAnnouncementFilter
	verdict, penalize := f.Decide(common.LegacyTxType, common.Hash{}, 1<<20)
	assert.Equal(t, VerdictReject, verdict)
	assert.True(t, penalize)
}

func TestStrictAnnouncementFilterAcceptsKnownWithinCap(t *testing.T) {
	var f StrictAnnouncementFilter
	verdict, penalize := f.Decide(common.DynamicFeeTxType, common.Hash{}, 2048)
	assert.Equal(t, VerdictAccept, verdict)
	assert.False(t, penalize)
}

func TestRelaxedAnnouncementFilterIgnoresUnknownWithoutPenalty(t *testing.T) {
	var f RelaxedAnnouncementFilter
	verdict, penalize := f.Decide(common.TxType(0x7f), common.Hash{}, 1024)
	assert.Equal(t, VerdictIgnore, verdict)
	assert.False(t, penalize)
}

func TestRelaxedAnnouncementFilterStillCapsSize(t *testing.T) {
	var f RelaxedAnnouncementFilter
	verdict, penalize := f.Decide(common.LegacyTxType, common.Hash{}, 1<<20)
	assert.Equal(t, VerdictReject, verdict)
	assert.True(t, penalize)
}

func TestTrustedOnlyPropagationPolicy(t *testing.T) {
	var p TrustedOnlyPropagationPolicy
	trusted := NewPeerMetadataWithCapacity("trusted", &fakePeer{id: "trusted"}, probeKindTrusted(), 16)
	basic := NewPeerMetadataWithCapacity("basic", &fakePeer{id: "basic"}, probeKindBasic(), 16)

	assert.True(t, p.CanPropagate(trusted))
	assert.False(t, p.CanPropagate(basic))
}

func TestAllowListPropagationPolicy(t *testing.T) {
	p := NewAllowListPropagationPolicy([]PeerId{"allowed"})
	allowed := NewPeerMetadataWithCapacity("allowed", &fakePeer{id: "allowed"}, probeKindBasic(), 16)
	other := NewPeerMetadataWithCapacity("other", &fakePeer{id: "other"}, probeKindBasic(), 16)
	trusted := NewPeerMetadataWithCapacity("trusted", &fakePeer{id: "trusted"}, probeKindTrusted(), 16)

	assert.True(t, p.CanPropagate(allowed))
	assert.False(t, p.CanPropagate(other))
	assert.True(t, p.CanPropagate(trusted), "trusted peers bypass the allow-list")
}
