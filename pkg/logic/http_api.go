// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/q191201771/lalsi/pkg/base"
)

type HttpApiServer struct {
	addr string
	sm   ILalsiServer

	ln  net.Listener
	srv http.Server
}

func NewHttpApiServer(addr string, sm ILalsiServer) *HttpApiServer {
	return &HttpApiServer{
		addr: addr,
		sm:   sm,
	}
}

func (h *HttpApiServer) Listen() (err error) {
	if h.ln, err = net.Listen("tcp", h.addr); err != nil {
		return
	}
	Log.Infof("start http-api server listen. addr=%s", h.addr)
	return
}

func (h *HttpApiServer) RunLoop() error {
	h.srv.Handler = h.Handler()
	return h.srv.Serve(h.ln)
}

func (h *HttpApiServer) Dispose() error {
	return h.srv.Close()
}

func (h *HttpApiServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/stat/lalsi_info", h.statLalsiInfoHandler)
	mux.HandleFunc("/api/stat/sdt", h.statSdtHandler)
	mux.HandleFunc("/api/stat/pat", h.statPatHandler)
	mux.HandleFunc("/api/stat/pipeline", h.statPipelineHandler)
	mux.HandleFunc("/", h.notFoundHandler)
	return mux
}

// ---------------------------------------------------------------------------------------------------------------------

func (h *HttpApiServer) statLalsiInfoHandler(w http.ResponseWriter, req *http.Request) {
	var v base.ApiStatLalsiInfoResp
	v.ErrorCode = base.ErrorCodeSucc
	v.Desp = base.DespSucc
	v.Data = h.sm.StatLalsiInfo()
	feedback(v, w)
}

func (h *HttpApiServer) statSdtHandler(w http.ResponseWriter, req *http.Request) {
	var v base.ApiStatSdtResp
	v.Data = h.sm.StatSdt()
	if v.Data == nil {
		v.ErrorCode = base.ErrorCodeTableNotReady
		v.Desp = base.DespTableNotReady
		feedback(v, w)
		return
	}
	v.ErrorCode = base.ErrorCodeSucc
	v.Desp = base.DespSucc
	feedback(v, w)
}

func (h *HttpApiServer) statPatHandler(w http.ResponseWriter, req *http.Request) {
	var v base.ApiStatPatResp
	v.Data = h.sm.StatPat()
	if v.Data == nil {
		v.ErrorCode = base.ErrorCodeTableNotReady
		v.Desp = base.DespTableNotReady
		feedback(v, w)
		return
	}
	v.ErrorCode = base.ErrorCodeSucc
	v.Desp = base.DespSucc
	feedback(v, w)
}

func (h *HttpApiServer) statPipelineHandler(w http.ResponseWriter, req *http.Request) {
	var v base.ApiStatPipelineResp
	v.ErrorCode = base.ErrorCodeSucc
	v.Desp = base.DespSucc
	v.Data = h.sm.StatPipeline()
	feedback(v, w)
}

func (h *HttpApiServer) notFoundHandler(w http.ResponseWriter, req *http.Request) {
	Log.Warnf("invalid http-api request. uri=%s, raddr=%s", req.RequestURI, req.RemoteAddr)
	feedback(base.ApiNotFoundResp, w)
}

// ---------------------------------------------------------------------------------------------------------------------

func feedback(v interface{}, w http.ResponseWriter) {
	resp, _ := json.Marshal(v)
	w.Header().Add("Server", base.LalsiHttpApiServer)
	base.AddCorsHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}
