// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/ingest"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/taskpool"
)

type ServerManager struct {
	uniqueKey       string
	option          Option
	serverStartTime string
	config          *Config

	pipeline      *Pipeline
	httpApiServer *HttpApiServer
	pprofServer   *http.Server
	exitChan      chan struct{}

	mutex sync.Mutex

	notifyHandlerThread taskpool.Pool

	disposeOnce sync.Once
}

func NewServerManager(modOption ...ModOption) *ServerManager {
	sm := &ServerManager{
		uniqueKey:       base.GenUkServerManager(),
		serverStartTime: base.ReadableNowTime(),
		exitChan:        make(chan struct{}),
	}

	sm.option = defaultOption
	for _, fn := range modOption {
		fn(&sm.option)
	}

	rawContent := sm.option.ConfRawContent
	if len(rawContent) == 0 {
		rawContent = base.WrapReadConfigFile(sm.option.ConfFilename, DefaultConfFilenameList, func() {
			_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s -c %s

Github: %s
`, os.Args[0], filepath.FromSlash("./conf/lalsi.conf.json"), base.LalsiGithubSite)
		})
	}
	sm.config = LoadConfAndInitLog(rawContent)
	base.LogoutStartInfo()

	sm.nhInitNotifyHandler()

	if sm.config.HttpApiConfig.Enable {
		sm.httpApiServer = NewHttpApiServer(sm.config.HttpApiConfig.Addr, sm)
	}

	if sm.config.PprofConfig.Enable {
		sm.pprofServer = &http.Server{Addr: sm.config.PprofConfig.Addr, Handler: nil}
	}

	return sm
}

// ----- implement ILalsiServer interface ------------------------------------------------------------------------------

func (sm *ServerManager) RunLoop() error {
	input, err := ingest.NewInput(func(option *ingest.InputOption) {
		option.Type = sm.config.InputConfig.Type
		option.Addr = sm.config.InputConfig.Addr
		option.Filename = sm.config.InputConfig.Filename
		option.PacketSize = sm.config.InputConfig.PacketSize
		option.ReadIntervalMs = sm.config.InputConfig.ReadIntervalMs
		option.ReplayRealtime = sm.config.InputConfig.ReplayRealtime
	})
	if err != nil {
		return err
	}

	pipeline, err := NewPipeline(sm.uniqueKey, sm.config, input, sm)
	if err != nil {
		_ = input.Dispose()
		return err
	}
	sm.mutex.Lock()
	sm.pipeline = pipeline
	sm.mutex.Unlock()

	sm.nhOnServerStart(sm.StatLalsiInfo())

	if sm.pprofServer != nil {
		go func() {
			Log.Infof("start web pprof listen. addr=%s", sm.config.PprofConfig.Addr)
			if err := sm.pprofServer.ListenAndServe(); err != nil {
				Log.Error(err)
			}
		}()
	}

	go base.RunSignalHandler(func() {
		_ = sm.Dispose()
	})

	if sm.httpApiServer != nil {
		if err := sm.httpApiServer.Listen(); err != nil {
			return err
		}
		go func() {
			if err := sm.httpApiServer.RunLoop(); err != nil {
				Log.Error(err)
			}
		}()
	}

	if sm.config.DebugConfig.LogStatIntervalSec > 0 {
		go sm.runLogStat(time.Duration(sm.config.DebugConfig.LogStatIntervalSec) * time.Second)
	}

	err = sm.pipeline.RunLoop(context.Background())
	Log.Infof("[%s] pipeline loop done. err=%+v", sm.uniqueKey, err)
	if err != nil {
		return err
	}

	// udp输入只会因为出错或者Dispose结束，文件类输入读完后根据配置决定是否继续提供http api
	if sm.config.InputConfig.Type == base.InputTypeUdp || sm.config.InputConfig.ExitOnEof {
		return nil
	}
	<-sm.exitChan
	return nil
}

func (sm *ServerManager) Dispose() error {
	var retErr error
	sm.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose server manager.", sm.uniqueKey)

		var e1, e2, e3 error
		sm.mutex.Lock()
		if sm.pipeline != nil {
			e1 = sm.pipeline.Dispose()
		}
		sm.mutex.Unlock()

		if sm.httpApiServer != nil {
			e2 = sm.httpApiServer.Dispose()
		}

		if sm.pprofServer != nil {
			e3 = sm.pprofServer.Close()
		}

		close(sm.exitChan)

		retErr = nazaerrors.CombineErrors(e1, e2, e3)
	})
	return retErr
}

// ----- implement IPipelineObserver interface -------------------------------------------------------------------------

func (sm *ServerManager) OnSdtUpdate(info base.SdtUpdateInfo) {
	sm.nhOnSdtUpdate(info)
}

func (sm *ServerManager) OnPatUpdate(info base.PatUpdateInfo) {
	sm.nhOnPatUpdate(info)
}

// ---------------------------------------------------------------------------------------------------------------------

func (sm *ServerManager) runLogStat(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-sm.exitChan:
			return
		case <-t.C:
			stat := sm.StatPipeline()
			Log.Debugf("[%s] STAT_LOG: input=%+v, ring buffer=%+v, ts packets=%d, ts packet errors=%d, add record errors=%d",
				sm.uniqueKey, stat.Input, stat.RingBuffer, stat.TsPackets, stat.TsPacketErrors, stat.AddRecordErrors)
			for _, d := range stat.Decoders {
				Log.Debugf("[%s] STAT_LOG: decoder=%+v", sm.uniqueKey, d)
			}
		}
	}
}
