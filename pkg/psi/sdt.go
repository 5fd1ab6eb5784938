// Copyright 2023, Chef.  All rights reserved.
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
)

// SDT <en_300468> <5.2.3>
//
// section布局见 mpegts.NewSdtSection

// running_status <en_300468> <Table 6>
const (
	RunningStatusUndefined           uint8 = 0
	RunningStatusNotRunning          uint8 = 1
	RunningStatusStartsInAFewSeconds uint8 = 2
	RunningStatusPausing             uint8 = 3
	RunningStatusRunning             uint8 = 4
	RunningStatusServiceOffAir       uint8 = 5
)

type SdtTableSelector int

const (
	SdtSelectActual SdtTableSelector = iota + 1 // table_id 0x42，当前复用
	SdtSelectOther                              // table_id 0x46，其他复用
	SdtSelectAll
)

func (s SdtTableSelector) String() string {
	switch s {
	case SdtSelectActual:
		return "actual"
	case SdtSelectOther:
		return "other"
	case SdtSelectAll:
		return "all"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// ParseSdtTableSelector 配置文件中的字符串形式
func ParseSdtTableSelector(s string) (SdtTableSelector, error) {
	switch s {
	case "actual", "":
		return SdtSelectActual, nil
	case "other":
		return SdtSelectOther, nil
	case "all":
		return SdtSelectAll, nil
	}
	return 0, fmt.Errorf("%w. sdt table selector=%s", base.ErrConfigInvalid, s)
}

type SdtExt struct {
	OriginalNetworkId uint16
}

type SdtService struct {
	ServiceId               uint16
	EitScheduleFlag         bool
	EitPresentFollowingFlag bool
	RunningStatus           uint8
	FreeCaMode              bool
	DescriptorsLoopLength   uint16
	Descriptors             []Descriptor
}

// ServiceDescriptor 查找第一个service_descriptor，没有或者解析失败时返回false
func (s *SdtService) ServiceDescriptor() (ServiceDescriptor, bool) {
	for _, d := range s.Descriptors {
		if d.Tag != mpegts.DescriptorTagService {
			continue
		}
		sd, err := ParseServiceDescriptor(d)
		if err != nil {
			return sd, false
		}
		return sd, true
	}
	return ServiceDescriptor{}, false
}

type (
	SdtTable   = Table[SdtExt, SdtService]
	SdtDecoder = SectionDecoder[SdtExt, SdtService]
)

// SdtParser SDT的 TableParser
type SdtParser struct {
	selector SdtTableSelector
}

func NewSdtParser(selector SdtTableSelector) *SdtParser {
	return &SdtParser{
		selector: selector,
	}
}

func NewSdtDecoder(selector SdtTableSelector, modOptions ...ModSectionDecoderOption) *SdtDecoder {
	return NewSectionDecoder[SdtExt, SdtService](NewSdtParser(selector), modOptions...)
}

func (p *SdtParser) AcceptTableId(tableId uint8) bool {
	switch p.selector {
	case SdtSelectActual:
		return tableId == mpegts.TableIdSdtActual
	case SdtSelectOther:
		return tableId == mpegts.TableIdSdtOther
	case SdtSelectAll:
		return tableId == mpegts.TableIdSdtActual || tableId == mpegts.TableIdSdtOther
	}
	return false
}

func (p *SdtParser) ParseSection(data []byte, headerOffset int, end int) (ext SdtExt, services []SdtService, err error) {
	index := headerOffset + SdtFixedHeaderSize
	if index > end {
		return ext, nil, fmt.Errorf("%w. need=%d, end=%d", base.ErrPsiSectionTooShort, index, end)
	}
	ext.OriginalNetworkId = SectionView(data[headerOffset:]).SdtOriginalNetworkId()

	for index < end {
		if index+SdtServiceHeaderSize > end {
			return ext, nil, base.NewErrPsiItemLoopOutOfRange(index+SdtServiceHeaderSize, end)
		}
		v := SdtServiceView(data[index:])

		s := SdtService{
			ServiceId:               v.ServiceId(),
			EitScheduleFlag:         v.EitScheduleFlag(),
			EitPresentFollowingFlag: v.EitPresentFollowingFlag(),
			RunningStatus:           v.RunningStatus(),
			FreeCaMode:              v.FreeCaMode(),
			DescriptorsLoopLength:   v.DescriptorsLoopLength(),
		}
		index += SdtServiceHeaderSize

		loopEnd := index + int(s.DescriptorsLoopLength)
		if loopEnd > end {
			return ext, nil, base.NewErrPsiItemLoopOutOfRange(loopEnd, end)
		}
		if s.Descriptors, err = ParseDescriptors(data, index, loopEnd); err != nil {
			return ext, nil, err
		}
		index = loopEnd

		services = append(services, s)
	}
	return ext, services, nil
}
