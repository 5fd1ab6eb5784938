// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
)

type fakeLalsiServer struct {
	sdt *base.StatSdt
	pat *base.StatPat
}

func (f *fakeLalsiServer) RunLoop() error { return nil }
func (f *fakeLalsiServer) Dispose() error { return nil }

func (f *fakeLalsiServer) StatLalsiInfo() base.LalsiInfo {
	return base.LalsiInfo{ServerId: "fake", LalsiVersion: base.LalsiVersion}
}

func (f *fakeLalsiServer) StatSdt() *base.StatSdt { return f.sdt }
func (f *fakeLalsiServer) StatPat() *base.StatPat { return f.pat }

func (f *fakeLalsiServer) StatPipeline() base.StatPipeline {
	return base.StatPipeline{TsPackets: 7}
}

func httpGet(t *testing.T, url string, v interface{}) *http.Response {
	resp, err := http.Get(url)
	assert.Equal(t, nil, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, json.Unmarshal(body, v))
	return resp
}

func TestHttpApiServer(t *testing.T) {
	fake := &fakeLalsiServer{}
	srv := httptest.NewServer(NewHttpApiServer("", fake).Handler())
	defer srv.Close()

	var info base.ApiStatLalsiInfoResp
	resp := httpGet(t, srv.URL+"/api/stat/lalsi_info", &info)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, base.LalsiHttpApiServer, resp.Header.Get("Server"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, base.ErrorCodeSucc, info.ErrorCode)
	assert.Equal(t, "fake", info.Data.ServerId)

	// 还没有收到表
	var sdt base.ApiStatSdtResp
	httpGet(t, srv.URL+"/api/stat/sdt", &sdt)
	assert.Equal(t, base.ErrorCodeTableNotReady, sdt.ErrorCode)
	assert.Equal(t, true, sdt.Data == nil)

	var pat base.ApiStatPatResp
	httpGet(t, srv.URL+"/api/stat/pat", &pat)
	assert.Equal(t, base.ErrorCodeTableNotReady, pat.ErrorCode)

	fake.sdt = &base.StatSdt{
		TransportStreamId: 1,
		Complete:          true,
		Services:          []base.StatSdtService{{ServiceId: 0x10, ServiceName: "svc16"}},
	}
	fake.pat = &base.StatPat{Programs: []base.StatPatProgram{{ProgramNumber: 1, Pid: 0x1000}}}

	sdt = base.ApiStatSdtResp{}
	httpGet(t, srv.URL+"/api/stat/sdt", &sdt)
	assert.Equal(t, base.ErrorCodeSucc, sdt.ErrorCode)
	assert.Equal(t, true, sdt.Data.Complete)
	assert.Equal(t, "svc16", sdt.Data.Services[0].ServiceName)

	pat = base.ApiStatPatResp{}
	httpGet(t, srv.URL+"/api/stat/pat", &pat)
	assert.Equal(t, base.ErrorCodeSucc, pat.ErrorCode)
	assert.Equal(t, uint16(0x1000), pat.Data.Programs[0].Pid)

	var pipeline base.ApiStatPipelineResp
	httpGet(t, srv.URL+"/api/stat/pipeline", &pipeline)
	assert.Equal(t, uint64(7), pipeline.Data.TsPackets)

	var notFound base.ApiRespBasic
	httpGet(t, srv.URL+"/api/ctrl/start_relay_pull", &notFound)
	assert.Equal(t, base.ErrorCodePageNotFound, notFound.ErrorCode)
}
