// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi_test

import (
	"testing"

	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/naza/pkg/assert"
)

func TestSectionAccumulator_CheckPid(t *testing.T) {
	a := psi.NewSectionAccumulator()
	_, ok := a.Pid()
	assert.Equal(t, false, ok)
	assert.Equal(t, true, a.CheckPid(0x11))
	assert.Equal(t, true, a.CheckPid(0x11))
	assert.Equal(t, false, a.CheckPid(0x12))

	a = psi.NewSectionAccumulator()
	a.SetPid(0x100)
	assert.Equal(t, false, a.CheckPid(0x11))
	pid, ok := a.Pid()
	assert.Equal(t, true, ok)
	assert.Equal(t, uint16(0x100), pid)
}

func TestSectionAccumulator(t *testing.T) {
	a := psi.NewSectionAccumulator()
	assert.Equal(t, false, a.InProgress())
	assert.Equal(t, false, a.IsComplete())

	// 未开始时追加无效
	a.AppendBytes([]byte{1, 2, 3})
	assert.Equal(t, 0, len(a.AccumulatedData()))

	// pointer_field=2，前2字节属于上一个section，section_length=6
	a.BeginSection(0x11, 2)
	assert.Equal(t, true, a.InProgress())
	assert.Equal(t, 3, a.HeaderOffset())
	a.AppendBytes([]byte{2, 0xAA, 0xBB, 0x42})
	assert.Equal(t, false, a.IsComplete())
	a.AppendBytes([]byte{0xF0, 0x06, 1, 2, 3})
	assert.Equal(t, false, a.IsComplete())
	a.AppendBytes([]byte{4, 5, 6, 0x46, 0xF0})
	assert.Equal(t, true, a.IsComplete())
	assert.Equal(t, []byte{2, 0xAA, 0xBB, 0x42, 0xF0, 0x06, 1, 2, 3, 4, 5, 6, 0x46, 0xF0}, a.AccumulatedData())

	// 紧跟着的下一个section
	assert.Equal(t, true, a.ConsumeSection())
	assert.Equal(t, 0, a.HeaderOffset())
	assert.Equal(t, []byte{0x46, 0xF0}, a.AccumulatedData())
	assert.Equal(t, false, a.IsComplete())
	a.AppendBytes([]byte{0x01, 0xAA, 0xFF, 0xFF})
	assert.Equal(t, true, a.IsComplete())

	// 之后是填充
	assert.Equal(t, false, a.ConsumeSection())
	assert.Equal(t, false, a.InProgress())

	// 重新开始时丢弃之前的数据
	a.BeginSection(0x11, 0)
	a.AppendBytes([]byte{0, 0x42})
	a.BeginSection(0x11, 1)
	assert.Equal(t, 0, len(a.AccumulatedData()))
	a.Abandon()
	assert.Equal(t, false, a.InProgress())
}
