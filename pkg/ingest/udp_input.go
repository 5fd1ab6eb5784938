// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package ingest

import (
	"net"
	"sync"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazanet"
)

// UdpInput 接收ts over udp，每个datagram包含N个188字节的ts packet
type UdpInput struct {
	uniqueKey string
	addr      string

	mutex sync.Mutex
	conn  *nazanet.UdpConnection
	laddr string

	stat        inputStat
	disposeOnce sync.Once
	disposed    bool
}

func NewUdpInput(addr string) *UdpInput {
	in := &UdpInput{
		uniqueKey: base.GenUkUdpInput(),
		addr:      addr,
	}
	Log.Infof("[%s] lifecycle new udp input. addr=%s", in.uniqueKey, addr)
	return in
}

// Listen 可选调用，RunLoop 中如果发现还没有监听会自动调用
//
// 监听地址的端口为0时，可通过 LocalAddr 获取实际端口
func (in *UdpInput) Listen() error {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	return in.listen()
}

func (in *UdpInput) RunLoop(onData OnData) error {
	in.mutex.Lock()
	if err := in.listen(); err != nil {
		in.mutex.Unlock()
		return err
	}
	conn := in.conn
	in.mutex.Unlock()

	err := conn.RunLoop(func(b []byte, raddr *net.UDPAddr, err error) bool {
		if err != nil {
			return false
		}
		if len(b)%base.MpegtsPacketSize != 0 {
			Log.Warnf("[%s] invalid datagram length. len=%d, raddr=%s", in.uniqueKey, len(b), raddr.String())
		}
		in.stat.add(len(b))
		return onData(b, NoTimestamp)
	})

	in.mutex.Lock()
	disposed := in.disposed
	in.mutex.Unlock()
	if disposed {
		return base.ErrIngestDisposed
	}
	return err
}

func (in *UdpInput) Dispose() error {
	var retErr error
	in.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose udp input.", in.uniqueKey)
		in.mutex.Lock()
		defer in.mutex.Unlock()
		in.disposed = true
		if in.conn != nil {
			retErr = in.conn.Dispose()
		}
	})
	return retErr
}

func (in *UdpInput) LocalAddr() string {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	return in.laddr
}

func (in *UdpInput) UniqueKey() string {
	return in.uniqueKey
}

func (in *UdpInput) Stat() base.StatInput {
	stat := base.StatInput{
		SessionId: in.uniqueKey,
		Type:      base.InputTypeUdp,
		Addr:      in.addr,
	}
	in.stat.fill(&stat)
	return stat
}

// ---------------------------------------------------------------------------------------------------------------------

func (in *UdpInput) listen() error {
	if in.disposed {
		return base.ErrIngestDisposed
	}
	if in.conn != nil {
		return nil
	}

	uaddr, err := net.ResolveUDPAddr("udp", in.addr)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	c, err := net.ListenUDP("udp", uaddr)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	in.conn, err = nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.Conn = c
		option.MaxReadPacketSize = 64 * 1024
	})
	if err != nil {
		_ = c.Close()
		return err
	}
	in.laddr = c.LocalAddr().String()
	Log.Infof("[%s] start udp input listen. addr=%s", in.uniqueKey, in.laddr)
	return nil
}
