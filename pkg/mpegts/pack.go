// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// PackSection 将一个section打包成ts packet
//
// 注意，内部会增加 cc 的值.
//
// @return: 内存块为独立申请，长度为188的整数倍
func PackSection(pid uint16, cc *uint8, section []byte) []byte {
	return PackSections(pid, cc, [][]byte{section})
}

// PackSections 将多个section首尾相连地打包成ts packet
//
// 一个section结束后，下一个section可能在同一个packet中开始，此时该packet的payload_unit_start_indicator为1，
// pointer_field指向该packet中第一个开始的section。最后一个packet剩余空间使用0xFF填充。
func PackSections(pid uint16, cc *uint8, sections [][]byte) []byte {
	var stream []byte
	starts := make([]int, 0, len(sections))
	for _, s := range sections {
		starts = append(starts, len(stream))
		stream = append(stream, s...)
	}

	var out []byte
	pos := 0
	si := 0 // 下一个还未被pointer_field指向的section起始位置在starts中的下标
	for pos < len(stream) {
		packet := make([]byte, PacketSize)
		for i := range packet {
			packet[i] = stuffingByte
		}

		packet[0] = syncByte
		packet[1] = uint8((pid >> 8) & 0x1F)
		packet[2] = uint8(pid & 0xFF)
		packet[3] = 0x10 | (*cc & 0x0F)
		*cc = (*cc + 1) & 0x0F

		wpos := PacketHeaderSize
		remain := len(stream) - pos

		// 跳过已经在之前packet中开始的section
		for si < len(starts) && starts[si] < pos {
			si++
		}

		switch {
		case si < len(starts) && starts[si]-pos <= PacketSize-PacketHeaderSize-2:
			// 当前packet中有section开始
			packet[1] |= 0x40
			packet[wpos] = uint8(starts[si] - pos)
			wpos++
		case si < len(starts) && starts[si]-pos == PacketSize-PacketHeaderSize-1:
			// section恰好在下一个packet的payload起始处开始，当前packet不能再放下这个字节，
			// 用1字节的adaptation field占位
			packet[3] |= 0x20
			packet[wpos] = 0 // adaptation_field_length
			wpos++
		}

		n := PacketSize - wpos
		if n > remain {
			n = remain
		}
		copy(packet[wpos:], stream[pos:pos+n])
		pos += n

		out = append(out, packet...)
	}
	return out
}
