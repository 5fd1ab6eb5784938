// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "strings"

// 版本信息相关
// 一部分版本信息使用了naza.bininfo，另外一部分在本文件中维护，并打入日志、HTTP API的server字段中

// LalsiVersion 整个工程的版本号。注意，该变量由外部脚本修改维护，不要手动在代码中修改
const LalsiVersion = "v0.1.0"

// ConfVersion lalsi的配置文件的版本号
const ConfVersion = "v0.1.0"

// HttpApiVersion lalsi的HTTP-API功能的版本号
const HttpApiVersion = "v0.1.0"

// HttpNotifyVersion lalsi的HTTP-Notify功能的版本号
const HttpNotifyVersion = "v0.1.0"

var (
	LalsiLibraryName = "lalsi"
	LalsiGithubRepo  = "github.com/q191201771/lalsi"
	LalsiGithubSite  = "https://github.com/q191201771/lalsi"

	// LalsiFullInfo e.g. lalsi v0.1.0 (github.com/q191201771/lalsi)
	LalsiFullInfo = LalsiLibraryName + " " + LalsiVersion + " (" + LalsiGithubRepo + ")"

	// LalsiVersionDot e.g. 0.1.0
	LalsiVersionDot string
)

var (
	// LalsiHttpApiServer e.g. lalsi0.1.0
	LalsiHttpApiServer string
)

func init() {
	LalsiVersionDot = strings.TrimPrefix(LalsiVersion, "v")
	LalsiHttpApiServer = LalsiLibraryName + LalsiVersionDot
}
