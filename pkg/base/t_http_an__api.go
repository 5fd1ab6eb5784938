// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// ----- response ------------------------------------------------------------------------------------------------------

const (
	ErrorCodeSucc = 0
	DespSucc      = "succ"

	ErrorCodePageNotFound = 404
	DespPageNotFound      = "page not found"

	ErrorCodeTableNotReady = 1001
	DespTableNotReady      = "table not received yet"
)

type ApiRespBasic struct {
	ErrorCode int    `json:"error_code"`
	Desp      string `json:"desp"`
}

var ApiNotFoundResp = ApiRespBasic{
	ErrorCode: ErrorCodePageNotFound,
	Desp:      DespPageNotFound,
}

type ApiStatLalsiInfoResp struct {
	ApiRespBasic
	Data LalsiInfo `json:"data"`
}

type ApiStatSdtResp struct {
	ApiRespBasic
	Data *StatSdt `json:"data"`
}

type ApiStatPatResp struct {
	ApiRespBasic
	Data *StatPat `json:"data"`
}

type ApiStatPipelineResp struct {
	ApiRespBasic
	Data StatPipeline `json:"data"`
}
