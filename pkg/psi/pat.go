// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/bele"
)

// PAT <iso13818-1.pdf> <2.4.4.3>
//
// -----loop-----
// program_number  [16b] **
// reserved        [3b]
// program_map_PID [13b] ** if program_number == 0 then network_PID else then program_map_PID
// --------------

type PatExt struct {
	// NetworkPid program_number为0的条目，没有时为0
	NetworkPid uint16
}

type PatProgram struct {
	ProgramNumber uint16
	ProgramMapPid uint16
}

type (
	PatTable   = Table[PatExt, PatProgram]
	PatDecoder = SectionDecoder[PatExt, PatProgram]
)

type PatParser struct{}

func NewPatDecoder(modOptions ...ModSectionDecoderOption) *PatDecoder {
	return NewSectionDecoder[PatExt, PatProgram](&PatParser{}, modOptions...)
}

func (p *PatParser) AcceptTableId(tableId uint8) bool {
	return tableId == mpegts.TableIdPat
}

func (p *PatParser) ParseSection(data []byte, headerOffset int, end int) (ext PatExt, programs []PatProgram, err error) {
	for i := headerOffset + SectionHeaderSize; i < end; i += 4 {
		if i+4 > end {
			return ext, nil, base.NewErrPsiItemLoopOutOfRange(i+4, end)
		}
		pn := bele.BeUint16(data[i:])
		pid := bele.BeUint16(data[i+2:]) & 0x1FFF
		if pn == 0 {
			ext.NetworkPid = pid
			continue
		}
		programs = append(programs, PatProgram{
			ProgramNumber: pn,
			ProgramMapPid: pid,
		})
	}
	return
}

// SearchPmtPid 查找program_number对应的PMT PID
func SearchPmtPid(table PatTable, programNumber uint16) (uint16, bool) {
	for _, p := range table.Items {
		if p.ProgramNumber == programNumber {
			return p.ProgramMapPid, true
		}
	}
	return 0, false
}
