// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/naza/pkg/nazabytes"
)

// sectionAccumulatorInitBufSize 一个long form section最大 3+1021 字节，私有section最大 3+4093 字节
const sectionAccumulatorInitBufSize = 4096

// SectionAccumulator 单个PID上section字节的累积
//
// 累积区域中保存的是packet payload的原始内容，包括pointer_field以及pointer_field之前属于上一个section的字节，
// section本身从 HeaderOffset 开始。所以section内部字段都可以用 HeaderOffset + 相对偏移 来寻址。
//
// 非并发安全
type SectionAccumulator struct {
	pid    uint16
	hasPid bool

	buf          *nazabytes.Buffer
	headerOffset int
	inProgress   bool
}

func NewSectionAccumulator() *SectionAccumulator {
	return &SectionAccumulator{
		buf: nazabytes.NewBuffer(sectionAccumulatorInitBufSize),
	}
}

// CheckPid 第一次观察到的PID为准，之后PID不一致时返回false
func (a *SectionAccumulator) CheckPid(pid uint16) bool {
	if !a.hasPid {
		a.pid = pid
		a.hasPid = true
		return true
	}
	return a.pid == pid
}

// SetPid 提前指定过滤的PID，而不是由第一个packet决定
func (a *SectionAccumulator) SetPid(pid uint16) {
	a.pid = pid
	a.hasPid = true
}

func (a *SectionAccumulator) Pid() (uint16, bool) {
	return a.pid, a.hasPid
}

// BeginSection 开始一个新的section，之前未完成的section被丢弃
//
// 调用方随后通过 AppendBytes 追加包含pointer_field在内的整个payload
func (a *SectionAccumulator) BeginSection(pid uint16, pointerField uint8) {
	a.pid = pid
	a.hasPid = true
	a.buf.Reset()
	a.headerOffset = 1 + int(pointerField)
	a.inProgress = true
}

func (a *SectionAccumulator) AppendBytes(b []byte) {
	if !a.inProgress {
		return
	}
	a.buf.Write(b)
}

// IsComplete 累积的数据长度达到 HeaderOffset + 3 + section_length
func (a *SectionAccumulator) IsComplete() bool {
	total, ok := a.declaredLength()
	if !ok {
		return false
	}
	return a.buf.Len() >= total
}

// AccumulatedData 所有已累积的数据，只读
//
// 注意，返回的切片引用内部内存，在下次调用 BeginSection、AppendBytes 等修改类函数后失效
func (a *SectionAccumulator) AccumulatedData() []byte {
	return a.buf.Bytes()
}

func (a *SectionAccumulator) HeaderOffset() int {
	return a.headerOffset
}

func (a *SectionAccumulator) InProgress() bool {
	return a.inProgress
}

// Abandon 丢弃当前section
func (a *SectionAccumulator) Abandon() {
	a.buf.Reset()
	a.headerOffset = 0
	a.inProgress = false
}

// ConsumeSection 当前section已处理完，将紧跟其后的数据作为下一个section的开始
//
// @return: 当前section之后是否还有需要处理的数据（不是0xFF填充）
func (a *SectionAccumulator) ConsumeSection() bool {
	total, ok := a.declaredLength()
	if !ok || a.buf.Len() < total {
		a.Abandon()
		return false
	}

	a.buf.Skip(total)
	a.headerOffset = 0

	rest := a.buf.Bytes()
	if len(rest) == 0 || rest[0] == stuffingByte {
		a.Abandon()
		return false
	}
	return true
}

func (a *SectionAccumulator) declaredLength() (int, bool) {
	b := a.buf.Bytes()
	if !a.inProgress || len(b) < a.headerOffset+3 {
		return 0, false
	}
	return a.headerOffset + SectionView(b[a.headerOffset:]).TotalLength(), true
}

const stuffingByte uint8 = 0xFF
