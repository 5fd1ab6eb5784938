// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package ingest

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// DumpInput 回放 base.DumpFile 格式的抓包文件
//
// 回调的时间戳为录制时的时间戳（毫秒转换为纳秒）
type DumpInput struct {
	uniqueKey      string
	filename       string
	replayRealtime bool

	stat        inputStat
	disposed    nazaatomic.Bool
	disposeOnce sync.Once
	disposeCh   chan struct{}
}

func NewDumpInput(filename string, replayRealtime bool) *DumpInput {
	in := &DumpInput{
		uniqueKey:      base.GenUkDumpInput(),
		filename:       filename,
		replayRealtime: replayRealtime,
		disposeCh:      make(chan struct{}),
	}
	Log.Infof("[%s] lifecycle new dump input. filename=%s, replay realtime=%v", in.uniqueKey, filename, replayRealtime)
	return in
}

func (in *DumpInput) RunLoop(onData OnData) error {
	df := base.NewDumpFile()
	if err := df.OpenToRead(in.filename); err != nil {
		return nazaerrors.Wrap(err)
	}
	defer df.Close()

	var (
		first     = true
		firstTs   uint32
		startTime time.Time
	)
	for {
		if in.disposed.Load() {
			return base.ErrIngestDisposed
		}

		m, err := df.ReadOneMessage()
		if err == io.EOF {
			Log.Infof("[%s] dump input eof. read records=%d", in.uniqueKey, in.stat.readRecords.Load())
			return nil
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				Log.Warnf("[%s] dump file truncated. err=%+v", in.uniqueKey, err)
				return nil
			}
			return err
		}

		if m.Typ != base.DumpTypeTsData && m.Typ != base.DumpTypeSrtData {
			Log.Warnf("[%s] skip unknown dump message. %s", in.uniqueKey, m.DebugString())
			continue
		}

		if in.replayRealtime {
			if first {
				first = false
				firstTs = m.Timestamp
				startTime = time.Now()
			} else if wait := time.Duration(m.Timestamp-firstTs)*time.Millisecond - time.Since(startTime); wait > 0 {
				select {
				case <-time.After(wait):
				case <-in.disposeCh:
					return base.ErrIngestDisposed
				}
			}
		}

		in.stat.add(len(m.Body))
		if !onData(m.Body, int64(m.Timestamp)*int64(time.Millisecond)) {
			return nil
		}
	}
}

func (in *DumpInput) Dispose() error {
	in.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose dump input.", in.uniqueKey)
		in.disposed.Store(true)
		close(in.disposeCh)
	})
	return nil
}

func (in *DumpInput) UniqueKey() string {
	return in.uniqueKey
}

func (in *DumpInput) Stat() base.StatInput {
	stat := base.StatInput{
		SessionId: in.uniqueKey,
		Type:      base.InputTypeDump,
		Addr:      in.filename,
	}
	in.stat.fill(&stat)
	return stat
}
