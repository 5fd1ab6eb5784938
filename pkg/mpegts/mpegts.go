// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mpegts ts packet的解析，以及PSI/SI section的打包
package mpegts

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

const (
	syncByte uint8 = 0x47

	PacketSize = 188

	// PacketHeaderSize ts packet header固定4字节
	PacketHeaderSize = 4

	// MaxSectionLength section_length字段最大值（long form的PSI/SI）
	MaxSectionLength = 1021

	// stuffingByte section之后的填充字节
	stuffingByte uint8 = 0xFF
)

// PID
// <iso13818-1.pdf> <Table 2-3> 以及 <en_300468> <Table 1>
const (
	PidPat  uint16 = 0x0000
	PidCat  uint16 = 0x0001
	PidTsdt uint16 = 0x0002
	PidNit  uint16 = 0x0010
	PidSdt  uint16 = 0x0011 // SDT和BAT共用
	PidEit  uint16 = 0x0012
	PidRst  uint16 = 0x0013
	PidTdt  uint16 = 0x0014 // TDT和TOT共用
	PidNull uint16 = 0x1FFF

	// PidPmtDefault 打包时默认使用的PMT PID，与ffmpeg一致
	PidPmtDefault uint16 = 0x1000
)

// table_id
// <iso13818-1.pdf> <Table 2-31> 以及 <en_300468> <Table 2>
const (
	TableIdPat         uint8 = 0x00
	TableIdCat         uint8 = 0x01
	TableIdPmt         uint8 = 0x02
	TableIdNitActual   uint8 = 0x40
	TableIdNitOther    uint8 = 0x41
	TableIdSdtActual   uint8 = 0x42
	TableIdSdtOther    uint8 = 0x46
	TableIdBat         uint8 = 0x4A
	TableIdEitActualPf uint8 = 0x4E
	TableIdEitOtherPf  uint8 = 0x4F
	TableIdTdt         uint8 = 0x70
	TableIdTot         uint8 = 0x73
	TableIdForbidden   uint8 = 0xFF
)

// stream_type
const (
	StreamTypeAac  uint8 = 0x0F
	StreamTypeAvc  uint8 = 0x1B
	StreamTypeHevc uint8 = 0x24
)

// descriptor_tag
// <en_300468> <Table 12>
const (
	DescriptorTagRegistration               uint8 = 0x05
	DescriptorTagDataStreamAlignment        uint8 = 0x06
	DescriptorTagIso639LanguageAndAudioType uint8 = 0x0A
	DescriptorTagMaximumBitrate             uint8 = 0x0E
	DescriptorTagNetworkName                uint8 = 0x40
	DescriptorTagServiceList                uint8 = 0x41
	DescriptorTagService                    uint8 = 0x48
	DescriptorTagLinkage                    uint8 = 0x4A
	DescriptorTagShortEvent                 uint8 = 0x4D
	DescriptorTagExtendedEvent              uint8 = 0x4E
	DescriptorTagComponent                  uint8 = 0x50
	DescriptorTagStreamIdentifier           uint8 = 0x52
	DescriptorTagCaIdentifier               uint8 = 0x53
	DescriptorTagContent                    uint8 = 0x54
	DescriptorTagParentalRating             uint8 = 0x55
	DescriptorTagTeletext                   uint8 = 0x56
	DescriptorTagLocalTimeOffset            uint8 = 0x58
	DescriptorTagSubtitling                 uint8 = 0x59
	DescriptorTagPrivateDataSpecifier       uint8 = 0x5F
	DescriptorTagAc3                        uint8 = 0x6A
	DescriptorTagEnhancedAc3                uint8 = 0x7A
	DescriptorTagExtension                  uint8 = 0x7F
)
