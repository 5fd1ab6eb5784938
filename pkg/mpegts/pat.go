// Copyright 2020, Chef.  All rights reserved.
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

// ---------------------------------------------------------------------------------------------------
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// table_id                 [8b] *
// section_syntax_indicator [1b]
// '0'                      [1b]
// reserved                 [2b]
// section_length           [12b] **
// transport_stream_id      [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----loop-----
// program_number           [16b] **
// reserved                 [3b]
// program_map_PID          [13b] ** if program_number == 0 then network_PID else then program_map_PID
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------

type PatSpecificData struct {
	ProgramElements []PatProgramElement
}

type PatProgramElement struct {
	ProgramNumber uint16
	Pid           uint16
}

func NewPatSection(transportStreamId uint16, elements []PatProgramElement) *PsiSection {
	psi := newPsiSection(TableIdPat, transportStreamId)
	psi.patData = &PatSpecificData{
		ProgramElements: elements,
	}
	return psi
}

func (psi *PsiSection) calcPatSectionLength() uint16 {
	return uint16(4 * len(psi.patData.ProgramElements))
}

func (psi *PsiSection) writePatSection(bw *nazabits.BitWriter) {
	for _, pe := range psi.patData.ProgramElements {
		bw.WriteBits16(16, pe.ProgramNumber)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.Pid)
	}
}
