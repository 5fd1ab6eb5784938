// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/taskpool"
)

// server_manager__notify.go
//
// NotifyHandler部分
//
// 回调在单独的一个worker中串行执行，不阻塞consumer goroutine

func (sm *ServerManager) nhInitNotifyHandler() {
	// 如果外部没有传入，则使用默认的http notify handler
	if sm.option.NotifyHandler == nil {
		sm.option.NotifyHandler = NewHttpNotify(sm.config.HttpNotifyConfig, sm.config.ServerId)
	}

	sm.notifyHandlerThread, _ = taskpool.NewPool(func(option *taskpool.Option) {
		option.InitWorkerNum = 1
		option.MaxWorkerNum = 1
	})
}

func (sm *ServerManager) nhOnServerStart(info base.LalsiInfo) {
	sm.notifyHandlerThread.Go(func(param ...interface{}) {
		p := param[0].(base.LalsiInfo)
		sm.option.NotifyHandler.OnServerStart(p)
	}, info)
}

func (sm *ServerManager) nhOnSdtUpdate(info base.SdtUpdateInfo) {
	sm.notifyHandlerThread.Go(func(param ...interface{}) {
		p := param[0].(base.SdtUpdateInfo)
		sm.option.NotifyHandler.OnSdtUpdate(p)
	}, info)
}

func (sm *ServerManager) nhOnPatUpdate(info base.PatUpdateInfo) {
	sm.notifyHandlerThread.Go(func(param ...interface{}) {
		p := param[0].(base.PatUpdateInfo)
		sm.option.NotifyHandler.OnPatUpdate(p)
	}, info)
}
