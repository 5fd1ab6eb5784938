// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// MPEG-2 CRC32，多项式0x04C11DB7，不反转，初始值0xFFFFFFFF，无最终异或
//
// 注意，与hash/crc32的IEEE（反转多项式）不同
var crc32MpegTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
		crc32MpegTable[i] = crc
	}
}

// CalcCrc32 在crc的基础上继续计算buffer
func CalcCrc32(crc uint32, buffer []byte) uint32 {
	for _, b := range buffer {
		crc = (crc << 8) ^ crc32MpegTable[byte(crc>>24)^b]
	}
	return crc
}

// Crc32Mpeg 计算整块内存的MPEG-2 CRC32
func Crc32Mpeg(b []byte) uint32 {
	return CalcCrc32(0xFFFFFFFF, b)
}

// VerifySectionCrc32 section（从table_id开始，包含末尾4字节CRC_32）整体计算结果为0时校验通过
func VerifySectionCrc32(section []byte) bool {
	if len(section) < 4 {
		return false
	}
	return Crc32Mpeg(section) == 0
}
