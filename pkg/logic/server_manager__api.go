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
	"github.com/q191201771/naza/pkg/bininfo"
)

// server_manager__api.go
//
// 支持http-api功能的部分
//

func (sm *ServerManager) StatLalsiInfo() base.LalsiInfo {
	var info base.LalsiInfo
	info.BinInfo = bininfo.StringifySingleLine()
	info.LalsiVersion = base.LalsiVersion
	info.ApiVersion = base.HttpApiVersion
	info.NotifyVersion = base.HttpNotifyVersion
	info.StartTime = sm.serverStartTime
	info.ServerId = sm.config.ServerId
	return info
}

func (sm *ServerManager) StatSdt() *base.StatSdt {
	p := sm.getPipeline()
	if p == nil {
		return nil
	}
	return p.Sdt()
}

func (sm *ServerManager) StatPat() *base.StatPat {
	p := sm.getPipeline()
	if p == nil {
		return nil
	}
	return p.Pat()
}

func (sm *ServerManager) StatPipeline() base.StatPipeline {
	p := sm.getPipeline()
	if p == nil {
		return base.StatPipeline{}
	}
	return p.Stat()
}

func (sm *ServerManager) getPipeline() *Pipeline {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.pipeline
}
