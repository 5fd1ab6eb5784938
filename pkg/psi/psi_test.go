// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi_test

import (
	"fmt"
	"testing"

	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
)

// 测试公用的section构造以及packet输入

type tsPacketFeeder interface {
	FeedTsPacket(pkt mpegts.TsPacket) error
}

// feedTs 切分成ts packet逐个输入，返回第一个错误，但是会输入所有packet
func feedTs(t *testing.T, d tsPacketFeeder, b []byte) error {
	var ret error
	for _, p := range mpegts.SplitTsPackets(b) {
		pkt, err := mpegts.ParseTsPacket(p)
		assert.Equal(t, nil, err)
		if err := d.FeedTsPacket(pkt); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}

func genServices(firstServiceId uint16, n int) []mpegts.SdtServiceElement {
	var ret []mpegts.SdtServiceElement
	for i := 0; i < n; i++ {
		id := firstServiceId + uint16(i)
		ret = append(ret, mpegts.SdtServiceElement{
			ServiceId:               id,
			EitPresentFollowingFlag: true,
			RunningStatus:           4,
			Descriptors: []mpegts.Descriptor{
				{
					Tag:     mpegts.DescriptorTagService,
					Service: &mpegts.DescriptorService{Type: 1, Provider: "lalsi", Name: fmt.Sprintf("svc%d", id)},
				},
			},
		})
	}
	return ret
}

func packSdt(t *testing.T, tableId uint8, version uint8, sn uint8, lsn uint8, services []mpegts.SdtServiceElement) []byte {
	sec := mpegts.NewSdtSection(tableId, 0x0001, 0x2000, services)
	sec.VersionNumber = version
	sec.SectionNumber = sn
	sec.LastSectionNumber = lsn
	b, err := sec.Pack()
	assert.Equal(t, nil, err)
	return b
}

// packSdtRaw 只有一个service，该service的descriptor循环总长度为 n+2，section总长度为 22+n
func packSdtRaw(t *testing.T, version uint8, sn uint8, lsn uint8, serviceId uint16, n int) []byte {
	return packSdt(t, mpegts.TableIdSdtActual, version, sn, lsn, []mpegts.SdtServiceElement{
		{ServiceId: serviceId, Descriptors: rawDescriptors(n + 2)},
	})
}

// rawDescriptors 总长度（包括tag和length）为total的私有descriptor，total不能小于2
func rawDescriptors(total int) []mpegts.Descriptor {
	var ret []mpegts.Descriptor
	for total > 0 {
		k := total - 2
		if k > 255 {
			k = 255
			if total-(k+2) == 1 {
				k--
			}
		}
		ret = append(ret, mpegts.Descriptor{Tag: 0x80, Data: make([]byte, k)})
		total -= k + 2
	}
	return ret
}

func toTs(pid uint16, sections ...[]byte) []byte {
	var cc uint8
	return mpegts.PackSections(pid, &cc, sections)
}
