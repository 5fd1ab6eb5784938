// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"fmt"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/bele"
)

// PMT <iso13818-1.pdf> <2.4.4.8>
//
// reserved            [3b]
// PCR_PID             [13b] **
// reserved            [4b]
// program_info_length [12b] **
// -----program descriptors-----
// -----loop-----
// stream_type         [8b]  *
// reserved            [3b]
// elementary_PID      [13b] **
// reserved            [4b]
// ES_info_length      [12b] **
// -----ES descriptors-----
// --------------

type PmtExt struct {
	PcrPid             uint16
	ProgramDescriptors []Descriptor
}

type PmtStream struct {
	StreamType  uint8
	Pid         uint16
	Descriptors []Descriptor
}

type (
	PmtTable   = Table[PmtExt, PmtStream]
	PmtDecoder = SectionDecoder[PmtExt, PmtStream]
)

type PmtParser struct{}

func NewPmtDecoder(modOptions ...ModSectionDecoderOption) *PmtDecoder {
	return NewSectionDecoder[PmtExt, PmtStream](&PmtParser{}, modOptions...)
}

func (p *PmtParser) AcceptTableId(tableId uint8) bool {
	return tableId == mpegts.TableIdPmt
}

func (p *PmtParser) ParseSection(data []byte, headerOffset int, end int) (ext PmtExt, streams []PmtStream, err error) {
	i := headerOffset + SectionHeaderSize
	if i+4 > end {
		return ext, nil, fmt.Errorf("%w. need=%d, end=%d", base.ErrPsiSectionTooShort, i+4, end)
	}
	ext.PcrPid = bele.BeUint16(data[i:]) & 0x1FFF
	pil := int(bele.BeUint16(data[i+2:]) & 0x0FFF)
	i += 4
	if i+pil > end {
		return ext, nil, base.NewErrPsiItemLoopOutOfRange(i+pil, end)
	}
	if ext.ProgramDescriptors, err = ParseDescriptors(data, i, i+pil); err != nil {
		return ext, nil, err
	}
	i += pil

	for i < end {
		if i+5 > end {
			return ext, nil, base.NewErrPsiItemLoopOutOfRange(i+5, end)
		}
		s := PmtStream{
			StreamType: data[i],
			Pid:        bele.BeUint16(data[i+1:]) & 0x1FFF,
		}
		eil := int(bele.BeUint16(data[i+3:]) & 0x0FFF)
		i += 5
		if i+eil > end {
			return ext, nil, base.NewErrPsiItemLoopOutOfRange(i+eil, end)
		}
		if s.Descriptors, err = ParseDescriptors(data, i, i+eil); err != nil {
			return ext, nil, err
		}
		i += eil
		streams = append(streams, s)
	}
	return
}
