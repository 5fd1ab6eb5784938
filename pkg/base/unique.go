// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

const (
	UkPreSectionDecoder = "SECDEC"
	UkPreRingBuffer     = "RINGBUF"
	UkPreUdpInput       = "UDPIN"
	UkPreFileInput      = "FILEIN"
	UkPreDumpInput      = "DUMPIN"
	UkPreSrtInput       = "SRTIN"
	UkPreServerManager  = "SM"
)

func GenUkSectionDecoder() string {
	return siUkSectionDecoder.GenUniqueKey()
}

func GenUkRingBuffer() string {
	return siUkRingBuffer.GenUniqueKey()
}

func GenUkUdpInput() string {
	return siUkUdpInput.GenUniqueKey()
}

func GenUkFileInput() string {
	return siUkFileInput.GenUniqueKey()
}

func GenUkDumpInput() string {
	return siUkDumpInput.GenUniqueKey()
}

func GenUkSrtInput() string {
	return siUkSrtInput.GenUniqueKey()
}

func GenUkServerManager() string {
	return siUkServerManager.GenUniqueKey()
}

var (
	siUkSectionDecoder *unique.SingleGenerator
	siUkRingBuffer     *unique.SingleGenerator
	siUkUdpInput       *unique.SingleGenerator
	siUkFileInput      *unique.SingleGenerator
	siUkDumpInput      *unique.SingleGenerator
	siUkSrtInput       *unique.SingleGenerator
	siUkServerManager  *unique.SingleGenerator
)

func init() {
	siUkSectionDecoder = unique.NewSingleGenerator(UkPreSectionDecoder)
	siUkRingBuffer = unique.NewSingleGenerator(UkPreRingBuffer)
	siUkUdpInput = unique.NewSingleGenerator(UkPreUdpInput)
	siUkFileInput = unique.NewSingleGenerator(UkPreFileInput)
	siUkDumpInput = unique.NewSingleGenerator(UkPreDumpInput)
	siUkSrtInput = unique.NewSingleGenerator(UkPreSrtInput)
	siUkServerManager = unique.NewSingleGenerator(UkPreServerManager)
}
