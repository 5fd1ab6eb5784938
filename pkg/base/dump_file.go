// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabytes"
)

// DumpFile 抓包文件，用于把收到的ts数据原样录制下来，后续离线回放调试
//
// 文件由连续的record组成，每个record格式如下（全部为大端）:
//
// ver       [32b]
// typ       [32b]
// len       [32b] body的长度
// timestamp [32b] 收到数据时的时间戳，单位毫秒，相对于录制开始
// body      [len bytes]
type DumpFile struct {
	file *os.File
	r    *bufio.Reader
}

const (
	DumpVer uint32 = 1

	DumpTypeTsData  uint32 = 1 // 一个或多个完整的188字节ts packet
	DumpTypeSrtData uint32 = 2
)

const dumpHeaderSize = 16

type DumpFileMessage struct {
	Ver       uint32
	Typ       uint32
	Len       uint32
	Timestamp uint32
	Body      []byte
}

func NewDumpFile() *DumpFile {
	return &DumpFile{}
}

func (d *DumpFile) OpenToWrite(filename string) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	d.file, err = os.Create(filename)
	return
}

func (d *DumpFile) OpenToRead(filename string) (err error) {
	d.file, err = os.Open(filename)
	if err != nil {
		return
	}
	d.r = bufio.NewReader(d.file)
	return
}

// WriteWithType
//
// @param timestamp: 单位毫秒
func (d *DumpFile) WriteWithType(b []byte, typ uint32, timestamp uint32) error {
	_, err := d.file.Write(packDumpMessage(b, typ, timestamp))
	return err
}

// ReadOneMessage
//
// 读到文件末尾时返回 io.EOF，record不完整时返回 io.ErrUnexpectedEOF
func (d *DumpFile) ReadOneMessage() (m DumpFileMessage, err error) {
	header := make([]byte, dumpHeaderSize)
	if _, err = io.ReadFull(d.r, header); err != nil {
		return
	}
	m.Ver = bele.BeUint32(header)
	m.Typ = bele.BeUint32(header[4:])
	m.Len = bele.BeUint32(header[8:])
	m.Timestamp = bele.BeUint32(header[12:])
	if m.Ver != DumpVer {
		err = fmt.Errorf("%w. ver=%d", ErrDumpFileVersion, m.Ver)
		return
	}
	m.Body = make([]byte, m.Len)
	if _, err = io.ReadFull(d.r, m.Body); err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return
}

func (d *DumpFile) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// ---------------------------------------------------------------------------------------------------------------------

func (m *DumpFileMessage) DebugString() string {
	return fmt.Sprintf("ver: %d, typ: %d, len: %d, timestamp: %d, len: %d, hex: %s",
		m.Ver, m.Typ, m.Len, m.Timestamp, len(m.Body), hex.Dump(nazabytes.Prefix(m.Body, 16)))
}

// ---------------------------------------------------------------------------------------------------------------------

func packDumpMessage(b []byte, typ uint32, timestamp uint32) []byte {
	ret := make([]byte, len(b)+dumpHeaderSize)
	bele.BePutUint32(ret, DumpVer)
	bele.BePutUint32(ret[4:], typ)
	bele.BePutUint32(ret[8:], uint32(len(b)))
	bele.BePutUint32(ret[12:], timestamp)
	copy(ret[16:], b)
	return ret
}
