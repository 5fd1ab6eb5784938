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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazanet"
)

func genPackets(n int) []byte {
	b := make([]byte, n*base.MpegtsPacketSize)
	for i := 0; i < n; i++ {
		p := b[i*base.MpegtsPacketSize:]
		p[0] = 0x47
		p[3] = byte(i)
	}
	return b
}

func TestNewInput(t *testing.T) {
	_, err := NewInput(func(option *InputOption) {
		option.Type = "rtp"
	})
	assert.Equal(t, true, errors.Is(err, base.ErrIngestUnknownType))

	_, err = NewInput(func(option *InputOption) {
		option.Type = base.InputTypeFile
		option.PacketSize = 204
	})
	assert.Equal(t, true, errors.Is(err, base.ErrMpegtsPacketSize))

	in, err := NewInput(func(option *InputOption) {
		option.Type = base.InputTypeDump
		option.Filename = "/tmp/lalsi.dump"
	})
	assert.Equal(t, nil, err)
	_, ok := in.(*DumpInput)
	assert.Equal(t, true, ok)
}

func TestFileInput(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.ts")
	content := genPackets(10)
	// 末尾不完整的packet被丢弃
	content = append(content, make([]byte, 50)...)
	assert.Equal(t, nil, os.WriteFile(filename, content, 0644))

	in := NewFileInput(filename, 0)
	var records [][]byte
	err := in.RunLoop(func(b []byte, timestamp int64) bool {
		assert.Equal(t, NoTimestamp, timestamp)
		records = append(records, append([]byte(nil), b...))
		return true
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(records))
	assert.Equal(t, 7*base.MpegtsPacketSize, len(records[0]))
	assert.Equal(t, 3*base.MpegtsPacketSize, len(records[1]))
	assert.Equal(t, byte(7), records[1][3])

	stat := in.Stat()
	assert.Equal(t, uint64(10*base.MpegtsPacketSize), stat.ReadBytes)
	assert.Equal(t, uint64(2), stat.ReadRecords)
	assert.Equal(t, base.InputTypeFile, stat.Type)
}

func TestFileInput_NotExist(t *testing.T) {
	in := NewFileInput(filepath.Join(t.TempDir(), "notexist.ts"), 0)
	err := in.RunLoop(func(b []byte, timestamp int64) bool {
		return true
	})
	assert.Equal(t, true, err != nil)
}

func TestFileInput_Dispose(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.ts")
	assert.Equal(t, nil, os.WriteFile(filename, genPackets(70), 0644))

	in := NewFileInput(filename, 1000)
	done := make(chan error, 1)
	go func() {
		done <- in.RunLoop(func(b []byte, timestamp int64) bool {
			return true
		})
	}()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, nil, in.Dispose())

	select {
	case err := <-done:
		assert.Equal(t, base.ErrIngestDisposed, err)
	case <-time.After(time.Second):
		t.Fatal("file input not stopped by dispose")
	}
}

func TestDumpInput(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.laldump")
	df := base.NewDumpFile()
	assert.Equal(t, nil, df.OpenToWrite(filename))
	assert.Equal(t, nil, df.WriteWithType(genPackets(7), base.DumpTypeTsData, 0))
	assert.Equal(t, nil, df.WriteWithType([]byte("ignored"), 99, 10))
	assert.Equal(t, nil, df.WriteWithType(genPackets(2), base.DumpTypeSrtData, 20))
	assert.Equal(t, nil, df.Close())

	in := NewDumpInput(filename, true)
	var lens []int
	var timestamps []int64
	begin := time.Now()
	err := in.RunLoop(func(b []byte, timestamp int64) bool {
		lens = append(lens, len(b))
		timestamps = append(timestamps, timestamp)
		return true
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, []int{7 * base.MpegtsPacketSize, 2 * base.MpegtsPacketSize}, lens)
	assert.Equal(t, []int64{0, int64(20 * time.Millisecond)}, timestamps)
	assert.Equal(t, true, time.Since(begin) >= 20*time.Millisecond)
	assert.Equal(t, uint64(2), in.Stat().ReadRecords)
}

func TestUdpInput(t *testing.T) {
	in := NewUdpInput("127.0.0.1:0")
	assert.Equal(t, nil, in.Listen())

	ch := make(chan []byte, 8)
	done := make(chan error, 1)
	go func() {
		done <- in.RunLoop(func(b []byte, timestamp int64) bool {
			ch <- append([]byte(nil), b...)
			return true
		})
	}()

	conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.RAddr = in.LocalAddr()
	})
	assert.Equal(t, nil, err)
	defer conn.Dispose()

	sent := genPackets(7)
	conn.Write(sent)

	select {
	case b := <-ch:
		assert.Equal(t, sent, b)
	case <-time.After(time.Second):
		t.Fatal("udp input recv timeout")
	}

	assert.Equal(t, nil, in.Dispose())
	select {
	case err := <-done:
		assert.Equal(t, base.ErrIngestDisposed, err)
	case <-time.After(time.Second):
		t.Fatal("udp input not stopped by dispose")
	}
	assert.Equal(t, uint64(1), in.Stat().ReadRecords)
}
