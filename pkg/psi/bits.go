// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

// 按位提取字段的accessor，全部基于切片视图，不发生拷贝。
// 调用方保证视图长度足够：SectionView至少 SectionHeaderSize 字节，SdtServiceView至少 SdtServiceHeaderSize 字节。

const (
	// SectionHeaderSize table_id ~ last_section_number
	SectionHeaderSize = 8

	// SdtFixedHeaderSize SDT section中item循环之前的部分，table_id ~ reserved_future_use
	SdtFixedHeaderSize = 11

	// SdtServiceHeaderSize SDT item循环中，每个service固定的5字节头
	SdtServiceHeaderSize = 5

	// Crc32Size section尾部CRC_32
	Crc32Size = 4
)

// SectionView 从table_id开始的section视图
//
// ----------------------------------------
// [0] table_id                 [8b]
// [1] section_syntax_indicator [1b]
//
//	'0' or reserved_future   [1b]
//	reserved                 [2b]
//	section_length           [12b] ([1]的低4位 + [2])
//
// [3] table_id_extension       [16b]
// [5] reserved                 [2b]
//
//	version_number           [5b]
//	current_next_indicator   [1b]
//
// [6] section_number           [8b]
// [7] last_section_number      [8b]
// ----------------------------------------
type SectionView []byte

func (v SectionView) TableId() uint8 {
	return v[0]
}

func (v SectionView) SectionSyntaxIndicator() uint8 {
	return uint8(nazabits.GetBit8(v[1], 7))
}

// SectionLength 高4位被屏蔽，只取12位
func (v SectionView) SectionLength() uint16 {
	return bele.BeUint16(v[1:]) & 0x0FFF
}

func (v SectionView) TableIdExtension() uint16 {
	return bele.BeUint16(v[3:])
}

// VersionNumber 5位，高位的reserved被屏蔽
func (v SectionView) VersionNumber() uint8 {
	return uint8(nazabits.GetBits8(v[5], 1, 5))
}

func (v SectionView) CurrentNextIndicator() uint8 {
	return uint8(nazabits.GetBit8(v[5], 0))
}

func (v SectionView) SectionNumber() uint8 {
	return v[6]
}

func (v SectionView) LastSectionNumber() uint8 {
	return v[7]
}

// SdtOriginalNetworkId 只对SDT有意义，调用方保证长度至少为10
func (v SectionView) SdtOriginalNetworkId() uint16 {
	return bele.BeUint16(v[8:])
}

// TotalLength section_length加上之前的3字节
func (v SectionView) TotalLength() int {
	return 3 + int(v.SectionLength())
}

// ---------------------------------------------------------------------------------------------------------------------

// SdtServiceView SDT item循环中，一个service的视图
//
// ----------------------------------------
// [0] service_id                 [16b]
// [2] reserved_future_use        [6b]
//
//	EIT_schedule_flag          [1b] bit 1
//	EIT_present_following_flag [1b] bit 0
//
// [3] running_status             [3b] bit 5~7
//
//	free_CA_mode               [1b] bit 4
//	descriptors_loop_length    [12b] ([3]的低4位 + [4])
//
// ----------------------------------------
type SdtServiceView []byte

func (v SdtServiceView) ServiceId() uint16 {
	return bele.BeUint16(v)
}

func (v SdtServiceView) EitScheduleFlag() bool {
	return nazabits.GetBit8(v[2], 1) == 1
}

func (v SdtServiceView) EitPresentFollowingFlag() bool {
	return nazabits.GetBit8(v[2], 0) == 1
}

func (v SdtServiceView) RunningStatus() uint8 {
	return uint8(nazabits.GetBits8(v[3], 5, 3))
}

func (v SdtServiceView) FreeCaMode() bool {
	return nazabits.GetBit8(v[3], 4) == 1
}

func (v SdtServiceView) DescriptorsLoopLength() uint16 {
	return bele.BeUint16(v[3:]) & 0x0FFF
}
