// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"os"

	"github.com/q191201771/lalsi/pkg/base"
)

// FileWriter 把PSI section打包成ts packet后写入.ts文件，每个PID独立维护continuity_counter
type FileWriter struct {
	fp  *os.File
	ccs map[uint16]uint8
}

func (fw *FileWriter) Create(filename string) (err error) {
	fw.fp, err = os.Create(filename)
	fw.ccs = make(map[uint16]uint8)
	return
}

// WriteSections 多个section连续打包，见 PackSections
func (fw *FileWriter) WriteSections(pid uint16, sections ...[]byte) error {
	if fw.fp == nil {
		return base.ErrMpegtsFileWriterNotCreated
	}
	cc := fw.ccs[pid]
	b := PackSections(pid, &cc, sections)
	fw.ccs[pid] = cc
	return fw.Write(b)
}

// Write 写入原始数据，调用方保证是完整的ts packet
func (fw *FileWriter) Write(b []byte) (err error) {
	if fw.fp == nil {
		return base.ErrMpegtsFileWriterNotCreated
	}
	_, err = fw.fp.Write(b)
	return
}

func (fw *FileWriter) Dispose() error {
	if fw.fp == nil {
		return base.ErrMpegtsFileWriterNotCreated
	}
	return fw.fp.Close()
}

func (fw *FileWriter) Name() string {
	if fw.fp == nil {
		return ""
	}
	return fw.fp.Name()
}
