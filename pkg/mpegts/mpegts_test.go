// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
)

// ffmpeg默认输出的PAT
var fixedPatSection = []byte{
	0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00,
	0x00, 0x01, 0xF0, 0x00, 0x2A, 0xB1, 0x04, 0xB2,
}

func TestCrc32Mpeg(t *testing.T) {
	assert.Equal(t, uint32(0x2AB104B2), mpegts.Crc32Mpeg(fixedPatSection[:12]))
	assert.Equal(t, true, mpegts.VerifySectionCrc32(fixedPatSection))

	corrupted := append([]byte{}, fixedPatSection...)
	corrupted[9] ^= 0x01
	assert.Equal(t, false, mpegts.VerifySectionCrc32(corrupted))
	assert.Equal(t, false, mpegts.VerifySectionCrc32([]byte{0x00}))

	// 分段计算与整体计算结果一致
	crc := mpegts.CalcCrc32(0xFFFFFFFF, fixedPatSection[:5])
	crc = mpegts.CalcCrc32(crc, fixedPatSection[5:12])
	assert.Equal(t, uint32(0x2AB104B2), crc)
}

func TestPackPat(t *testing.T) {
	section, err := mpegts.NewPatSection(1, []mpegts.PatProgramElement{
		{ProgramNumber: 1, Pid: mpegts.PidPmtDefault},
	}).Pack()
	assert.Equal(t, nil, err)
	assert.Equal(t, fixedPatSection, section)

	var cc uint8
	packets := mpegts.PackSection(mpegts.PidPat, &cc, section)
	assert.Equal(t, mpegts.PacketSize, len(packets))
	assert.Equal(t, uint8(1), cc)

	pkt, err := mpegts.ParseTsPacket(packets)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PidPat, pkt.Pid)
	assert.Equal(t, true, pkt.PayloadUnitStart)
	assert.Equal(t, uint8(0), pkt.Header.Cc)
	assert.Equal(t, 184, len(pkt.Payload))
	assert.Equal(t, uint8(0), pkt.Payload[0]) // pointer_field
	assert.Equal(t, fixedPatSection, pkt.Payload[1:1+len(fixedPatSection)])
	for _, b := range pkt.Payload[1+len(fixedPatSection):] {
		assert.Equal(t, uint8(0xFF), b)
	}
}

func TestPackSdt(t *testing.T) {
	psi := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 0x0001, 0xFF01, []mpegts.SdtServiceElement{
		{
			ServiceId:               0x0001,
			EitPresentFollowingFlag: true,
			RunningStatus:           4,
			Descriptors: []mpegts.Descriptor{
				{Tag: mpegts.DescriptorTagService, Service: &mpegts.DescriptorService{Type: 1, Provider: "lal", Name: "Service01"}},
			},
		},
	})
	psi.VersionNumber = 3
	section, err := psi.Pack()
	assert.Equal(t, nil, err)

	h := mpegts.ParseTsPacketHeader([]byte{0x47, 0x40, 0x11, 0x10})
	assert.Equal(t, mpegts.PidSdt, h.Pid)

	assert.Equal(t, mpegts.TableIdSdtActual, section[0])
	assert.Equal(t, uint8(0xF0), section[1]&0xF0)
	sl := int(section[1]&0x0F)<<8 | int(section[2])
	assert.Equal(t, len(section)-3, sl)
	assert.Equal(t, uint8(0xC7), section[5]) // reserved + version 3 + current_next 1
	assert.Equal(t, []byte{0xFF, 0x01}, section[8:10])
	// service_id, flags, running_status|free_CA_mode|descriptors_loop_length
	assert.Equal(t, []byte{0x00, 0x01, 0xFD, 0x80, 0x11}, section[11:16])
	assert.Equal(t, []byte{0x48, 0x0F, 0x01, 0x03, 'l', 'a', 'l', 0x09}, section[16:24])
	assert.Equal(t, true, mpegts.VerifySectionCrc32(section))
}

func TestPackSectionTooLarge(t *testing.T) {
	var services []mpegts.SdtServiceElement
	for i := 0; i < 8; i++ {
		services = append(services, mpegts.SdtServiceElement{
			ServiceId:   uint16(i),
			Descriptors: []mpegts.Descriptor{{Tag: 0x80, Data: make([]byte, 200)}},
		})
	}
	_, err := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 1, 1, services).Pack()
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsSectionTooLarge))
}

func TestPackSections(t *testing.T) {
	mk := func(sn uint8, payloadSize int) []byte {
		psi := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 1, 1, []mpegts.SdtServiceElement{
			{ServiceId: uint16(sn), Descriptors: []mpegts.Descriptor{
				{Tag: 0x80, Data: make([]byte, payloadSize/2)},
				{Tag: 0x81, Data: make([]byte, payloadSize-payloadSize/2-2)},
			}},
		})
		psi.SectionNumber = sn
		psi.LastSectionNumber = 2
		s, err := psi.Pack()
		assert.Equal(t, nil, err)
		return s
	}

	// 第一个section长度为366，第二个section恰好在第三个packet的payload起始处开始
	s0 := mk(0, 366-3-12-5-2)
	assert.Equal(t, 366, len(s0))
	s1 := mk(1, 20)
	s2 := mk(2, 20)

	var cc uint8 = 14
	out := mpegts.PackSections(mpegts.PidSdt, &cc, [][]byte{s0, s1, s2})
	packets := mpegts.SplitTsPackets(out)
	assert.Equal(t, 3, len(packets))
	assert.Equal(t, uint8(1), cc)

	p0, err := mpegts.ParseTsPacket(packets[0])
	assert.Equal(t, nil, err)
	assert.Equal(t, true, p0.PayloadUnitStart)
	assert.Equal(t, uint8(14), p0.Header.Cc)

	p1, err := mpegts.ParseTsPacket(packets[1])
	assert.Equal(t, nil, err)
	assert.Equal(t, false, p1.PayloadUnitStart)
	assert.Equal(t, mpegts.AdaptationFieldControlBoth, p1.Header.Adaptation)
	assert.Equal(t, 183, len(p1.Payload))
	assert.Equal(t, uint8(15), p1.Header.Cc)

	p2, err := mpegts.ParseTsPacket(packets[2])
	assert.Equal(t, nil, err)
	assert.Equal(t, true, p2.PayloadUnitStart)
	assert.Equal(t, uint8(0), p2.Header.Cc)
	assert.Equal(t, uint8(0), p2.Payload[0])
	// s1和s2在同一个packet中首尾相连
	assert.Equal(t, s1, p2.Payload[1:1+len(s1)])
	assert.Equal(t, s2, p2.Payload[1+len(s1):1+len(s1)+len(s2)])

	var reassembled []byte
	reassembled = append(reassembled, p0.Payload[1:]...)
	reassembled = append(reassembled, p1.Payload...)
	reassembled = append(reassembled, p2.Payload[1:]...)
	assert.Equal(t, true, bytes.HasPrefix(reassembled, append(append(append([]byte{}, s0...), s1...), s2...)))
}

func TestPackSectionsPointerField(t *testing.T) {
	mk := func(n int) []byte {
		s, err := mpegts.NewSdtSection(mpegts.TableIdSdtOther, 1, 1, []mpegts.SdtServiceElement{
			{ServiceId: 1, Descriptors: []mpegts.Descriptor{{Tag: 0x80, Data: make([]byte, n)}}},
		}).Pack()
		assert.Equal(t, nil, err)
		return s
	}
	s0 := mk(200) // 222字节，跨越两个packet
	s1 := mk(10)

	var cc uint8
	packets := mpegts.SplitTsPackets(mpegts.PackSections(mpegts.PidSdt, &cc, [][]byte{s0, s1}))
	assert.Equal(t, 2, len(packets))

	p1, err := mpegts.ParseTsPacket(packets[1])
	assert.Equal(t, nil, err)
	assert.Equal(t, true, p1.PayloadUnitStart)
	pointerField := int(p1.Payload[0])
	assert.Equal(t, len(s0)-183, pointerField)
	assert.Equal(t, s1, p1.Payload[1+pointerField:1+pointerField+len(s1)])
}

func TestPackDescriptorTooLarge(t *testing.T) {
	_, err := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 1, 1, []mpegts.SdtServiceElement{
		{ServiceId: 1, Descriptors: []mpegts.Descriptor{{Tag: 0x80, Data: make([]byte, 256)}}},
	}).Pack()
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsDescriptorTooLarge))
}

func TestParseTsPacket(t *testing.T) {
	_, err := mpegts.ParseTsPacket(make([]byte, 100))
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsPacketSize))

	b := make([]byte, mpegts.PacketSize)
	_, err = mpegts.ParseTsPacket(b)
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsSyncByte))

	// adaptation field only
	b[0] = 0x47
	b[1] = 0x01
	b[2] = 0x00
	b[3] = 0x20
	pkt, err := mpegts.ParseTsPacket(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x100), pkt.Pid)
	assert.Equal(t, 0, len(pkt.Payload))

	// adaptation field length越界
	b[3] = 0x30
	b[4] = 200
	_, err = mpegts.ParseTsPacket(b)
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsAdaptationFieldLength))

	b[4] = 10
	pkt, err = mpegts.ParseTsPacket(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PacketSize-4-1-10, len(pkt.Payload))
}

func TestSplitTsPackets(t *testing.T) {
	assert.Equal(t, 0, len(mpegts.SplitTsPackets(nil)))
	assert.Equal(t, 2, len(mpegts.SplitTsPackets(make([]byte, 188*2+100))))
	assert.Equal(t, 7, len(mpegts.SplitTsPackets(make([]byte, 188*7))))
}
