// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package ingest

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// FileInput 读取.ts文件，每次回调7个ts packet，文件末尾不足7个时回调剩余的完整packet
type FileInput struct {
	uniqueKey      string
	filename       string
	readIntervalMs int

	stat        inputStat
	disposed    nazaatomic.Bool
	disposeOnce sync.Once
	disposeCh   chan struct{}
}

func NewFileInput(filename string, readIntervalMs int) *FileInput {
	in := &FileInput{
		uniqueKey:      base.GenUkFileInput(),
		filename:       filename,
		readIntervalMs: readIntervalMs,
		disposeCh:      make(chan struct{}),
	}
	Log.Infof("[%s] lifecycle new file input. filename=%s, read interval=%dms", in.uniqueKey, filename, readIntervalMs)
	return in
}

func (in *FileInput) RunLoop(onData OnData) error {
	fp, err := os.Open(in.filename)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	defer fp.Close()

	r := bufio.NewReader(fp)
	b := make([]byte, packetsPerRecord*base.MpegtsPacketSize)
	for {
		if in.disposed.Load() {
			return base.ErrIngestDisposed
		}

		n, err := io.ReadFull(r, b)
		// 丢弃末尾不完整的packet
		n -= n % base.MpegtsPacketSize
		if n > 0 {
			in.stat.add(n)
			if !onData(b[:n], NoTimestamp) {
				return nil
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			Log.Infof("[%s] file input eof. read bytes=%d", in.uniqueKey, in.stat.readBytes.Load())
			return nil
		}
		if err != nil {
			return nazaerrors.Wrap(err)
		}

		if in.readIntervalMs > 0 {
			select {
			case <-time.After(time.Duration(in.readIntervalMs) * time.Millisecond):
			case <-in.disposeCh:
				return base.ErrIngestDisposed
			}
		}
	}
}

func (in *FileInput) Dispose() error {
	in.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose file input.", in.uniqueKey)
		in.disposed.Store(true)
		close(in.disposeCh)
	})
	return nil
}

func (in *FileInput) UniqueKey() string {
	return in.uniqueKey
}

func (in *FileInput) Stat() base.StatInput {
	stat := base.StatInput{
		SessionId: in.uniqueKey,
		Type:      base.InputTypeFile,
		Addr:      in.filename,
	}
	in.stat.fill(&stat)
	return stat
}
