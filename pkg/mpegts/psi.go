// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"fmt"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

// PsiSection long form（section_syntax_indicator为1）的PSI/SI section打包器
//
// 通过 NewPatSection、NewPmtSection、NewSdtSection 创建，再按需修改版本号、section编号等公共字段
//
// ---------------------------------------------------------------------------------------------------
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// '0' or reserved_future   [1b]
// reserved                 [2b]
// section_length           [12b] ** 不包括自己以及之前的字段
// table_id_extension       [16b] ** PAT为transport_stream_id，PMT为program_number，SDT为transport_stream_id
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----table data-----
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type PsiSection struct {
	TableId              uint8
	TableIdExtension     uint16
	VersionNumber        uint8
	CurrentNextIndicator uint8
	SectionNumber        uint8
	LastSectionNumber    uint8

	patData *PatSpecificData
	pmtData *PmtSpecificData
	sdtData *SdtSpecificData
}

// Descriptor 打包时使用的descriptor
//
// Registration或Service不为nil时由对应结构体生成负载，否则直接使用Data
type Descriptor struct {
	Tag          uint8
	Data         []byte
	Registration *DescriptorRegistration
	Service      *DescriptorService
}

// DescriptorRegistration <iso13818-1.pdf> <2.6.8>
type DescriptorRegistration struct {
	FormatIdentifier             uint32
	AdditionalIdentificationInfo []byte
}

// DescriptorService <en_300468> <6.2.33>
//
// service_type                 [8b]
// service_provider_name_length [8b]
// service_provider_name        [n*8b]
// service_name_length          [8b]
// service_name                 [n*8b]
type DescriptorService struct {
	Type     uint8
	Provider string
	Name     string
}

func newPsiSection(tableId uint8, tableIdExtension uint16) *PsiSection {
	return &PsiSection{
		TableId:              tableId,
		TableIdExtension:     tableIdExtension,
		CurrentNextIndicator: 1,
	}
}

// Pack
//
// @return: 从table_id开始，到CRC_32结束的完整section，不包含pointer_field
func (psi *PsiSection) Pack() ([]byte, error) {
	if err := psi.checkDescriptors(); err != nil {
		return nil, err
	}

	sl := psi.calcPsiSectionLength()
	if sl > MaxSectionLength {
		return nil, fmt.Errorf("%w. section length=%d", base.ErrMpegtsSectionTooLarge, sl)
	}

	out := make([]byte, 3+int(sl))
	bw := nazabits.NewBitWriter(out)

	bw.WriteBits8(8, psi.TableId)
	bw.WriteBit(1)
	if psi.sdtData != nil {
		// reserved_future_use
		bw.WriteBit(1)
	} else {
		bw.WriteBit(0)
	}
	bw.WriteBits8(2, 0xff)
	bw.WriteBits16(12, sl)

	bw.WriteBits16(16, psi.TableIdExtension)
	bw.WriteBits8(2, 0xff)
	bw.WriteBits8(5, psi.VersionNumber&0x1F)
	bw.WriteBit(psi.CurrentNextIndicator & 0x01)
	bw.WriteBits8(8, psi.SectionNumber)
	bw.WriteBits8(8, psi.LastSectionNumber)

	switch {
	case psi.patData != nil:
		psi.writePatSection(&bw)
	case psi.pmtData != nil:
		psi.writePmtSection(&bw)
	case psi.sdtData != nil:
		psi.writeSdtSection(&bw)
	}

	crc := Crc32Mpeg(out[:len(out)-4])
	bele.BePutUint32(out[len(out)-4:], crc)
	return out, nil
}

// ---------------------------------------------------------------------------------------------------------------------

func (psi *PsiSection) calcPsiSectionLength() (length uint16) {
	// table_id_extension ~ last_section_number
	length = 5

	switch {
	case psi.patData != nil:
		length += psi.calcPatSectionLength()
	case psi.pmtData != nil:
		length += psi.calcPmtSectionLength()
	case psi.sdtData != nil:
		length += psi.calcSdtSectionLength()
	}

	length += 4 // crc32
	return
}

func (psi *PsiSection) checkDescriptors() error {
	var all [][]Descriptor
	switch {
	case psi.pmtData != nil:
		all = append(all, psi.pmtData.ProgramDescriptors)
		for _, pe := range psi.pmtData.ProgramElements {
			all = append(all, pe.Descriptors)
		}
	case psi.sdtData != nil:
		for _, s := range psi.sdtData.Services {
			all = append(all, s.Descriptors)
		}
	}
	for _, ds := range all {
		for _, d := range ds {
			if n := calcDescriptorLengthInt(d); n > 255 {
				return fmt.Errorf("%w. tag=0x%02x, length=%d", base.ErrMpegtsDescriptorTooLarge, d.Tag, n)
			}
		}
	}
	return nil
}

func calcDescriptorsLength(ds []Descriptor) uint16 {
	length := uint16(0)
	for _, d := range ds {
		length += 2 // tag and length
		length += uint16(calcDescriptorLength(d))
	}
	return length
}

func calcDescriptorLength(d Descriptor) uint8 {
	return uint8(calcDescriptorLengthInt(d))
}

func calcDescriptorLengthInt(d Descriptor) int {
	switch {
	case d.Registration != nil:
		return 4 + len(d.Registration.AdditionalIdentificationInfo)
	case d.Service != nil:
		return 3 + len(d.Service.Provider) + len(d.Service.Name)
	}
	return len(d.Data)
}

// writeDescriptorsWithLength reserved(4b) + loop length(12b) + descriptors
func writeDescriptorsWithLength(bw *nazabits.BitWriter, ds []Descriptor) {
	bw.WriteBits8(4, 0xff)
	bw.WriteBits16(12, calcDescriptorsLength(ds))
	writeDescriptors(bw, ds)
}

func writeDescriptors(bw *nazabits.BitWriter, ds []Descriptor) {
	for _, d := range ds {
		writeDescriptor(bw, d)
	}
}

func writeDescriptor(bw *nazabits.BitWriter, d Descriptor) {
	bw.WriteBits8(8, d.Tag)
	bw.WriteBits8(8, calcDescriptorLength(d))

	switch {
	case d.Registration != nil:
		bw.WriteBits16(16, uint16((d.Registration.FormatIdentifier>>16)&0xFFFF))
		bw.WriteBits16(16, uint16(d.Registration.FormatIdentifier&0xFFFF))
		writeBytes(bw, d.Registration.AdditionalIdentificationInfo)
	case d.Service != nil:
		bw.WriteBits8(8, d.Service.Type)
		bw.WriteBits8(8, uint8(len(d.Service.Provider)))
		writeBytes(bw, []byte(d.Service.Provider))
		bw.WriteBits8(8, uint8(len(d.Service.Name)))
		writeBytes(bw, []byte(d.Service.Name))
	default:
		writeBytes(bw, d.Data)
	}
}

func writeBytes(bw *nazabits.BitWriter, b []byte) {
	for _, v := range b {
		bw.WriteBits8(8, v)
	}
}
