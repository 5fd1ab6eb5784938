// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"net/http"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/nazahttp"
)

var (
	maxTaskLen       = 1024
	notifyTimeoutSec = 3
)

type PostTask struct {
	url  string
	info interface{}
}

// HttpNotify 异步发送http通知，队列满时丢弃
type HttpNotify struct {
	cfg HttpNotifyConfig

	serverId string

	taskQueue chan PostTask
	client    *http.Client

	disposeOnce sync.Once
	exitChan    chan struct{}
}

func NewHttpNotify(cfg HttpNotifyConfig, serverId string) *HttpNotify {
	httpNotify := &HttpNotify{
		cfg:       cfg,
		serverId:  serverId,
		taskQueue: make(chan PostTask, maxTaskLen),
		client: &http.Client{
			Timeout: time.Duration(notifyTimeoutSec) * time.Second,
		},
		exitChan: make(chan struct{}),
	}
	go httpNotify.RunLoop()

	return httpNotify
}

// ----- implement INotifyHandler interface ----------------------------------------------------------------------------

func (h *HttpNotify) OnServerStart(info base.LalsiInfo) {
	info.ServerId = h.serverId
	h.asyncPost(h.cfg.OnServerStart, info)
}

func (h *HttpNotify) OnSdtUpdate(info base.SdtUpdateInfo) {
	info.ServerId = h.serverId
	h.asyncPost(h.cfg.OnSdtUpdate, info)
}

func (h *HttpNotify) OnPatUpdate(info base.PatUpdateInfo) {
	info.ServerId = h.serverId
	h.asyncPost(h.cfg.OnPatUpdate, info)
}

// ---------------------------------------------------------------------------------------------------------------------

func (h *HttpNotify) RunLoop() {
	for {
		select {
		case t := <-h.taskQueue:
			h.post(t.url, t.info)
		case <-h.exitChan:
			return
		}
	}
}

// Dispose 还在队列中的通知被丢弃
func (h *HttpNotify) Dispose() {
	h.disposeOnce.Do(func() {
		close(h.exitChan)
	})
}

// ---------------------------------------------------------------------------------------------------------------------

func (h *HttpNotify) asyncPost(url string, info interface{}) {
	if !h.cfg.Enable || url == "" {
		return
	}

	select {
	case h.taskQueue <- PostTask{url: url, info: info}:
		// noop
	default:
		Log.Error("http notify queue full.")
	}
}

func (h *HttpNotify) post(url string, info interface{}) {
	if _, err := nazahttp.PostJson(url, info, h.client); err != nil {
		Log.Errorf("http notify post error. err=%+v, url=%s, info=%+v", err, url, info)
	}
}
