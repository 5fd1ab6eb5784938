// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package ingest ts数据的输入源，作为ring buffer的生产者
package ingest

import (
	"fmt"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazaatomic"
)

// NoTimestamp 输入源自身没有时间戳，由ring buffer打时间戳
const NoTimestamp int64 = -1

// OnData
//
// @param b: 一个或多个完整的ts packet。回调结束后内部可能复用该内存块，业务方需要自行拷贝
//
// @param timestamp: 单位纳秒，NoTimestamp 表示没有时间戳
//
// @return 返回false时 RunLoop 结束
type OnData func(b []byte, timestamp int64) bool

type IInput interface {
	// RunLoop 阻塞直到输入结束、出错或者 Dispose
	//
	// 正常读到结尾时返回nil
	RunLoop(onData OnData) error

	Dispose() error

	UniqueKey() string
	Stat() base.StatInput
}

type InputOption struct {
	// Type base.InputTypeUdp, base.InputTypeFile, base.InputTypeDump
	Type string

	// Addr udp监听地址
	Addr string

	// Filename file和dump类型使用
	Filename string

	// PacketSize 每个ts packet的字节数，目前只支持188
	PacketSize int

	// ReadIntervalMs file类型每读取一个record后的间隔，为0时不等待
	ReadIntervalMs int

	// ReplayRealtime dump类型是否按照录制时的时间戳间隔回放
	ReplayRealtime bool
}

var defaultInputOption = InputOption{
	Type:       base.InputTypeUdp,
	Addr:       ":1234",
	PacketSize: base.MpegtsPacketSize,
}

type ModInputOption func(option *InputOption)

// NewInput 根据 InputOption.Type 创建对应的输入源
func NewInput(modOptions ...ModInputOption) (IInput, error) {
	option := defaultInputOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.PacketSize != base.MpegtsPacketSize {
		return nil, base.NewErrMpegtsPacketSize(option.PacketSize)
	}

	switch option.Type {
	case base.InputTypeUdp:
		return NewUdpInput(option.Addr), nil
	case base.InputTypeFile:
		return NewFileInput(option.Filename, option.ReadIntervalMs), nil
	case base.InputTypeDump:
		return NewDumpInput(option.Filename, option.ReplayRealtime), nil
	}
	return nil, fmt.Errorf("%w. type=%s", base.ErrIngestUnknownType, option.Type)
}

// ---------------------------------------------------------------------------------------------------------------------

type inputStat struct {
	readBytes   nazaatomic.Uint64
	readRecords nazaatomic.Uint64
}

func (s *inputStat) add(n int) {
	s.readBytes.Add(uint64(n))
	s.readRecords.Increment()
}

func (s *inputStat) fill(stat *base.StatInput) {
	stat.ReadBytes = s.readBytes.Load()
	stat.ReadRecords = s.readRecords.Load()
}
