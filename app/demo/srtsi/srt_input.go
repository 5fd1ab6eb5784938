// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/haivision/srtgo"
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/ingest"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazalog"
)

// live模式下一个SRT message最多7个ts packet
const srtMaxMessageSize = 1316

// SrtInput 作为SRT listener，只接收第一个publish连接上来的ts流
type SrtInput struct {
	uniqueKey string
	host      string
	port      uint16

	mutex    sync.Mutex
	listener *srtgo.SrtSocket
	conn     *srtgo.SrtSocket
	disposed bool

	readBytes   nazaatomic.Uint64
	readRecords nazaatomic.Uint64
}

var _ ingest.IInput = &SrtInput{}

func NewSrtInput(host string, port uint16) *SrtInput {
	in := &SrtInput{
		uniqueKey: base.GenUkSrtInput(),
		host:      host,
		port:      port,
	}
	nazalog.Infof("[%s] lifecycle new srt input. host=%s, port=%d", in.uniqueKey, host, port)
	return in
}

func (in *SrtInput) RunLoop(onData ingest.OnData) error {
	options := make(map[string]string)
	options["transtype"] = "live"
	sck := srtgo.NewSrtSocket(in.host, in.port, options)
	sck.SetListenCallback(in.listenCallback)
	if err := sck.Listen(1); err != nil {
		sck.Close()
		return err
	}

	in.mutex.Lock()
	if in.disposed {
		in.mutex.Unlock()
		sck.Close()
		return base.ErrIngestDisposed
	}
	in.listener = sck
	in.mutex.Unlock()

	conn, addr, err := sck.Accept()
	if err != nil {
		return in.wrapErr(err)
	}
	nazalog.Infof("[%s] srt accept. raddr=%s", in.uniqueKey, addr.String())

	in.mutex.Lock()
	in.conn = conn
	in.mutex.Unlock()

	buf := make([]byte, srtMaxMessageSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, srtgo.EConnLost) {
				nazalog.Infof("[%s] srt disconnected.", in.uniqueKey)
				return nil
			}
			return in.wrapErr(err)
		}
		if n == 0 {
			continue
		}
		in.readBytes.Add(uint64(n))
		in.readRecords.Increment()
		if !onData(buf[:n], ingest.NoTimestamp) {
			return nil
		}
	}
}

func (in *SrtInput) Dispose() error {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.disposed {
		return nil
	}
	in.disposed = true
	nazalog.Infof("[%s] lifecycle dispose srt input.", in.uniqueKey)
	if in.conn != nil {
		in.conn.Close()
	}
	if in.listener != nil {
		in.listener.Close()
	}
	return nil
}

func (in *SrtInput) UniqueKey() string {
	return in.uniqueKey
}

func (in *SrtInput) Stat() base.StatInput {
	return base.StatInput{
		SessionId:   in.uniqueKey,
		Type:        base.InputTypeSrt,
		Addr:        net.JoinHostPort(in.host, strconv.Itoa(int(in.port))),
		ReadBytes:   in.readBytes.Load(),
		ReadRecords: in.readRecords.Load(),
	}
}

// ---------------------------------------------------------------------------------------------------------------------

// listenCallback 只接受publish模式的streamid，没有streamid时也接受
func (in *SrtInput) listenCallback(socket *srtgo.SrtSocket, version int, addr *net.UDPAddr, streamid string) bool {
	nazalog.Infof("[%s] srt will connect. hs version=%d, raddr=%s, streamid=%s", in.uniqueKey, version, addr.String(), streamid)
	if streamid == "" {
		return true
	}
	if strings.Contains(streamid, "m=request") || strings.Contains(streamid, "m=play") {
		socket.SetRejectReason(srtgo.RejectionReasonBadRequest)
		return false
	}
	return true
}

func (in *SrtInput) wrapErr(err error) error {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.disposed {
		return base.ErrIngestDisposed
	}
	return err
}
