// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazabits"
)

// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8
	Cc               uint8
}

// adaptation_field_control取值
const (
	AdaptationFieldControlReserved    uint8 = 0
	AdaptationFieldControlPayloadOnly uint8 = 1
	AdaptationFieldControlOnly        uint8 = 2
	AdaptationFieldControlBoth        uint8 = 3
)

// TsPacket 解析后的ts packet
//
// Payload 指向输入内存块，不发生拷贝
type TsPacket struct {
	Header           TsPacketHeader
	Pid              uint16
	PayloadUnitStart bool
	Payload          []byte
}

// ParseTsPacketHeader 解析4字节TS Packet header
//
// 调用方保证 len(b) >= 4
func ParseTsPacketHeader(b []byte) (h TsPacketHeader) {
	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)
	return
}

// ParseTsPacket 解析一个完整的188字节ts packet，跳过adaptation field，返回payload
//
// 没有payload的packet（adaptation_field_control为2）返回长度为0的Payload
func ParseTsPacket(b []byte) (pkt TsPacket, err error) {
	if len(b) != PacketSize {
		return pkt, base.NewErrMpegtsPacketSize(len(b))
	}
	if b[0] != syncByte {
		return pkt, base.NewErrMpegtsSyncByte(b[0])
	}

	pkt.Header = ParseTsPacketHeader(b)
	pkt.Pid = pkt.Header.Pid
	pkt.PayloadUnitStart = pkt.Header.PayloadUnitStart == 1

	index := PacketHeaderSize
	switch pkt.Header.Adaptation {
	case AdaptationFieldControlPayloadOnly:
		// noop
	case AdaptationFieldControlBoth:
		// adaptation_field_length 不包括自己这1字节
		index += 1 + int(b[index])
		if index > PacketSize {
			return pkt, base.ErrMpegtsAdaptationFieldLength
		}
	default:
		pkt.Payload = b[PacketSize:]
		return pkt, nil
	}

	pkt.Payload = b[index:]
	return pkt, nil
}

// SplitTsPackets 将一块内存切分成多个188字节的ts packet
//
// 尾部不足188字节的部分被丢弃，返回的切片均指向输入内存块
func SplitTsPackets(b []byte) [][]byte {
	n := len(b) / PacketSize
	ret := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		ret = append(ret, b[i*PacketSize:(i+1)*PacketSize])
	}
	return ret
}
