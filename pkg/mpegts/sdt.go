// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/nazabits"
)

// ----------------------------------------
// Service Description Section
// <en_300468> <5.2.3> <Table 5>
// table_id                   [8b]  * 0x42 actual, 0x46 other
// section_syntax_indicator   [1b]
// reserved_future_use        [1b]
// reserved                   [2b]
// section_length             [12b] **
// transport_stream_id        [16b] **
// reserved                   [2b]
// version_number             [5b]
// current_next_indicator     [1b]  *
// section_number             [8b]  *
// last_section_number        [8b]  *
// original_network_id        [16b] **
// reserved_future_use        [8b]  *
// -----loop-----
// service_id                 [16b] **
// reserved_future_use        [6b]
// EIT_schedule_flag          [1b]
// EIT_present_following_flag [1b]  *
// running_status             [3b]
// free_CA_mode               [1b]
// descriptors_loop_length    [12b] **
// -----descriptors-----
// --------------
// CRC_32                     [32b] ****
// ----------------------------------------

type SdtSpecificData struct {
	OriginalNetworkId uint16
	Services          []SdtServiceElement
}

type SdtServiceElement struct {
	ServiceId               uint16
	EitScheduleFlag         bool
	EitPresentFollowingFlag bool
	RunningStatus           uint8
	FreeCaMode              bool
	Descriptors             []Descriptor
}

// NewSdtSection
//
// @param tableId: TableIdSdtActual 或 TableIdSdtOther
func NewSdtSection(tableId uint8, transportStreamId uint16, originalNetworkId uint16, services []SdtServiceElement) *PsiSection {
	psi := newPsiSection(tableId, transportStreamId)
	psi.sdtData = &SdtSpecificData{
		OriginalNetworkId: originalNetworkId,
		Services:          services,
	}
	return psi
}

func (psi *PsiSection) calcSdtSectionLength() uint16 {
	// original_network_id(16b) + reserved_future_use(8b)
	length := uint16(3)
	for _, s := range psi.sdtData.Services {
		length += 5
		length += calcDescriptorsLength(s.Descriptors)
	}
	return length
}

func (psi *PsiSection) writeSdtSection(bw *nazabits.BitWriter) {
	bw.WriteBits16(16, psi.sdtData.OriginalNetworkId)
	bw.WriteBits8(8, 0xff)

	for _, s := range psi.sdtData.Services {
		bw.WriteBits16(16, s.ServiceId)
		bw.WriteBits8(6, 0xff)
		bw.WriteBit(boolToBit(s.EitScheduleFlag))
		bw.WriteBit(boolToBit(s.EitPresentFollowingFlag))
		bw.WriteBits8(3, s.RunningStatus&0x07)
		bw.WriteBit(boolToBit(s.FreeCaMode))
		bw.WriteBits16(12, calcDescriptorsLength(s.Descriptors))
		writeDescriptors(bw, s.Descriptors)
	}
}

func boolToBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
