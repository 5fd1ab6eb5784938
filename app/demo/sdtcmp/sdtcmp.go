// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 分别用lalsi和go-astits解析同一个ts文件中的SDT，比较两者的结果
//
// 注意，go-astits不区分actual和other，所以这里lalsi使用 psi.SdtSelectAll

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	filename := parseFlag()
	content, err := os.ReadFile(filename)
	nazalog.Assert(nil, err)

	lalsiServices := decodeByLalsi(content)
	astitsServices := decodeByAstits(content)
	nazalog.Infof("services. lalsi=%d, astits=%d", len(lalsiServices), len(astitsServices))

	diff := 0
	for id, s := range lalsiServices {
		e, ok := astitsServices[id]
		if !ok {
			nazalog.Warnf("service only in lalsi. service id=%d", id)
			diff++
			continue
		}
		if !equal(s, e) {
			nazalog.Warnf("service mismatch. service id=%d, lalsi=%+v, astits=%+v", id, s, e)
			diff++
		}
	}
	for id := range astitsServices {
		if _, ok := lalsiServices[id]; !ok {
			nazalog.Warnf("service only in astits. service id=%d", id)
			diff++
		}
	}
	nazalog.Infof("compare done. diff=%d", diff)
	if diff != 0 {
		os.Exit(1)
	}
}

func decodeByLalsi(content []byte) map[uint16]psi.SdtService {
	services := make(map[uint16]psi.SdtService)
	d := psi.NewSdtDecoder(psi.SdtSelectAll).WithOnTableChanged(func(table psi.SdtTable) {
		nazalog.Debugf("lalsi sdt. table id=0x%02x, version=%d, section=%d/%d, services=%d",
			table.TableId, table.VersionNumber, table.SectionNumber, table.LastSectionNumber, len(table.Items))
		for _, s := range table.Items {
			services[s.ServiceId] = s
		}
	})
	for _, raw := range mpegts.SplitTsPackets(content) {
		pkt, err := mpegts.ParseTsPacket(raw)
		if err != nil {
			continue
		}
		if pkt.Pid != mpegts.PidSdt {
			continue
		}
		if err = d.FeedTsPacket(pkt); err != nil {
			nazalog.Warnf("lalsi feed failed. err=%+v", err)
		}
	}
	return services
}

func decodeByAstits(content []byte) map[uint16]*ts.SDTDataService {
	services := make(map[uint16]*ts.SDTDataService)
	dmx := ts.NewDemuxer(context.Background(), bytes.NewReader(content), ts.DemuxerOptPacketSize(mpegts.PacketSize))
	for {
		data, err := dmx.NextData()
		if err != nil {
			if !errors.Is(err, ts.ErrNoMorePackets) {
				nazalog.Warnf("astits next data failed. err=%+v", err)
			}
			break
		}
		if data.SDT == nil {
			continue
		}
		for _, s := range data.SDT.Services {
			services[s.ServiceID] = s
		}
	}
	return services
}

func equal(s psi.SdtService, e *ts.SDTDataService) bool {
	if s.EitScheduleFlag != e.HasEITSchedule ||
		s.EitPresentFollowingFlag != e.HasEITPresentFollowing ||
		s.FreeCaMode != e.HasFreeCSAMode ||
		s.RunningStatus != e.RunningStatus ||
		len(s.Descriptors) != len(e.Descriptors) {
		return false
	}
	for i, ed := range e.Descriptors {
		if ed.Tag != s.Descriptors[i].Tag {
			return false
		}
		if ed.Service == nil {
			continue
		}
		sd, err := psi.ParseServiceDescriptor(s.Descriptors[i])
		if err != nil {
			return false
		}
		if sd.ServiceType != ed.Service.Type ||
			!bytes.Equal(sd.ServiceName, ed.Service.Name) ||
			!bytes.Equal(sd.ProviderName, ed.Service.Provider) {
			return false
		}
	}
	return true
}

func parseFlag() string {
	i := flag.String("i", "", "specify ts file")
	flag.Parse()
	if *i == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  %s -i /tmp/test.ts
`, os.Args[0])
		os.Exit(1)
	}
	return *i
}
