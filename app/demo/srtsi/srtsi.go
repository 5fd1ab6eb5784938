// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/logic"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 作为SRT listener接收ts流，打印SDT和PAT的变化
//
// 推流示例:
//   ffmpeg -re -i test.ts -c copy -f mpegts 'srt://127.0.0.1:6001?streamid=#!::r=live/test,m=publish'
//
// 依赖libsrt，需要cgo

type printer struct{}

func (printer) OnSdtUpdate(info base.SdtUpdateInfo) {
	nazalog.Infof("sdt update. section=%d, complete=%v, tsid=%d, onid=%d", info.SectionNumber,
		info.Sdt.Complete, info.Sdt.TransportStreamId, info.Sdt.OriginalNetworkId)
	for _, s := range info.Sdt.Services {
		nazalog.Infof("    service. id=%d, type=%d, provider=%s, name=%s, running status=%d",
			s.ServiceId, s.ServiceType, s.ProviderName, s.ServiceName, s.RunningStatus)
	}
}

func (printer) OnPatUpdate(info base.PatUpdateInfo) {
	for _, p := range info.Pat.Programs {
		nazalog.Infof("pat update. program number=%d, pmt pid=%d", p.ProgramNumber, p.Pid)
	}
}

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	host, port, table := parseFlag()

	// pipeline只用到input以外的配置，input由本程序自己创建
	config, err := logic.LoadConf([]byte(fmt.Sprintf(`{"sdt": {"table": %q}}`, table)))
	nazalog.Assert(nil, err)

	in := NewSrtInput(host, port)
	p, err := logic.NewPipeline("SRTSI", config, in, printer{})
	nazalog.Assert(nil, err)
	err = p.RunLoop(context.Background())
	nazalog.Infof("pipeline done. err=%+v, stat=%+v", err, p.Stat())
}

func parseFlag() (string, uint16, string) {
	h := flag.String("h", "0.0.0.0", "listen host")
	p := flag.Int("p", 6001, "listen port")
	t := flag.String("t", "actual", "sdt table, actual|other|all")
	flag.Parse()
	if *p <= 0 || *p > 65535 {
		flag.Usage()
		os.Exit(1)
	}
	return *h, uint16(*p), *t
}
