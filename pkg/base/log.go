// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"encoding/hex"
	"fmt"

	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazalog"
)

// LogDump 异常数据的十六进制dump
//
// trace级别不限次数，debug级别最多dump debugMaxNum次，更高的级别不dump。
// 非并发安全，由调用方保证在同一个goroutine中使用
type LogDump struct {
	log         nazalog.Logger
	debugMaxNum int
	prefixLen   int

	debugCount int
}

// NewLogDump
//
// @param debugMaxNum: 日志最小级别为debug时，dump次数的阈值
//
// @param prefixLen: 每次最多dump的字节数
func NewLogDump(log nazalog.Logger, debugMaxNum int, prefixLen int) LogDump {
	return LogDump{
		log:         log,
		debugMaxNum: debugMaxNum,
		prefixLen:   prefixLen,
	}
}

func (ld *LogDump) ShouldDump() bool {
	switch ld.log.GetOption().Level {
	case nazalog.LevelTrace:
		return true
	case nazalog.LevelDebug:
		if ld.debugCount >= ld.debugMaxNum {
			return false
		}
		ld.debugCount++
		return true
	}
	return false
}

// DumpHex 内部调用 ShouldDump，不需要dump时不会产生hex.Dump的开销
func (ld *LogDump) DumpHex(b []byte, format string, v ...interface{}) {
	if !ld.ShouldDump() {
		return
	}
	ld.log.Out(ld.log.GetOption().Level, 3,
		fmt.Sprintf("%s, len=%d, hex=\n%s", fmt.Sprintf(format, v...), len(b), hex.Dump(nazabytes.Prefix(b, ld.prefixLen))))
}
