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

// ----------------------------------------
// Program Map Table
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// 0                        [1b]
// reserved                 [2b]
// section_length           [12b] **
// program_number           [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// reserved                 [3b]
// PCR_PID                  [13b] **
// reserved                 [4b]
// program_info_length      [12b] **
// -----program descriptors-----
// -----loop-----
// stream_type              [8b]  *
// reserved                 [3b]
// elementary_PID           [13b] **
// reserved                 [4b]
// ES_info_length           [12b] **
// -----ES descriptors-----
// --------------
// CRC32                    [32b] ****
// ----------------------------------------

type PmtSpecificData struct {
	PcrPid             uint16
	ProgramDescriptors []Descriptor
	ProgramElements    []PmtProgramElement
}

type PmtProgramElement struct {
	StreamType  uint8
	Pid         uint16
	Descriptors []Descriptor
}

func NewPmtSection(programNumber uint16, pcrPid uint16, programDescriptors []Descriptor, elements []PmtProgramElement) *PsiSection {
	psi := newPsiSection(TableIdPmt, programNumber)
	psi.pmtData = &PmtSpecificData{
		PcrPid:             pcrPid,
		ProgramDescriptors: programDescriptors,
		ProgramElements:    elements,
	}
	return psi
}

func (psi *PsiSection) calcPmtSectionLength() uint16 {
	// reserved(3b) + PCR_PID(13b) + reserved(4b) + program_info_length(12b)
	length := uint16(4)
	length += calcDescriptorsLength(psi.pmtData.ProgramDescriptors)

	for _, pe := range psi.pmtData.ProgramElements {
		length += 5
		length += calcDescriptorsLength(pe.Descriptors)
	}
	return length
}

func (psi *PsiSection) writePmtSection(bw *nazabits.BitWriter) {
	bw.WriteBits8(3, 0xff)
	bw.WriteBits16(13, psi.pmtData.PcrPid)
	writeDescriptorsWithLength(bw, psi.pmtData.ProgramDescriptors)

	for _, pe := range psi.pmtData.ProgramElements {
		bw.WriteBits8(8, pe.StreamType)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.Pid)
		writeDescriptorsWithLength(bw, pe.Descriptors)
	}
}
