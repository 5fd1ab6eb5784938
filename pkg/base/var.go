// Copyright 2021, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// ----- mpegts --------------------
var (
	// MpegtsPacketSize ts packet固定长度
	MpegtsPacketSize = 188
)

// ----- ringbuffer --------------------
var (
	// RingBufferDefaultCapacity 未配置时ring buffer最多可缓存的record个数
	RingBufferDefaultCapacity = 1024

	// RingBufferDefaultSlotSize 未配置时每个slot的字节数，对应UDP常见的7个ts packet
	RingBufferDefaultSlotSize = 7 * 188
)

// ----- logic --------------------
var (
	// LogicDumpDebugMaxNum debug级别下，异常packet十六进制dump的最大次数
	LogicDumpDebugMaxNum = 32
)
